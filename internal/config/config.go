package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Cloud    CloudConfig    `mapstructure:"cloud"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Arcade   ArcadeConfig   `mapstructure:"arcade"`
	Study    StudyConfig    `mapstructure:"study"`
}

// DatabaseConfig holds local persistence configuration
type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // sqlite3 or postgres
	DataDir string `mapstructure:"data_dir"`
	Name    string `mapstructure:"name"`
	DSN     string `mapstructure:"dsn"` // Used as-is when set
}

// CloudConfig holds the remote document store used by sync
type CloudConfig struct {
	DSN    string `mapstructure:"dsn"`
	UserID string `mapstructure:"user_id"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ReminderConfig controls the periodic due-review check
type ReminderConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	StartHour       int  `mapstructure:"start_hour"`
	EndHour         int  `mapstructure:"end_hour"`
}

// TelegramConfig holds the reminder bot credentials
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// ArcadeConfig holds arcade host settings
type ArcadeConfig struct {
	Lives int  `mapstructure:"lives"`
	FPS   int  `mapstructure:"fps"`
	Sound bool `mapstructure:"sound"`
}

// StudyConfig holds study defaults
type StudyConfig struct {
	DailyTarget int `mapstructure:"daily_target"`
}

// Load reads configuration from .env and environment variables
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith resolves configuration through v, so flags already bound to v
// take precedence over the environment
func LoadWith(v *viper.Viper) (*Config, error) {
	// A missing .env is fine, the environment and defaults still apply
	_ = godotenv.Load()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

// DefaultDailyTarget is the daily card target when none is configured
const DefaultDailyTarget = 20

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.data_dir", "data")
	v.SetDefault("database.name", "katasensei.db")
	v.SetDefault("database.dsn", "")

	v.SetDefault("cloud.dsn", "")
	v.SetDefault("cloud.user_id", "local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.interval_minutes", 60)
	v.SetDefault("reminder.start_hour", 8)
	v.SetDefault("reminder.end_hour", 22)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("arcade.lives", 3)
	v.SetDefault("arcade.fps", 60)
	v.SetDefault("arcade.sound", true)

	v.SetDefault("study.daily_target", DefaultDailyTarget)
}

// normalize clamps out-of-range values instead of rejecting them
func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" || c.Database.Driver == "sqlite" {
		c.Database.Driver = "sqlite3"
	}
	if c.Reminder.IntervalMinutes < 1 {
		c.Reminder.IntervalMinutes = 1
	}
	c.Reminder.StartHour = clampHour(c.Reminder.StartHour)
	c.Reminder.EndHour = clampHour(c.Reminder.EndHour)
	if c.Arcade.Lives < 1 {
		c.Arcade.Lives = 1
	}
	if c.Arcade.FPS < 1 {
		c.Arcade.FPS = 1
	}
	if c.Study.DailyTarget < 1 {
		c.Study.DailyTarget = 1
	}
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}

// DatabaseURL returns the connection string for the local store
func (c *Config) DatabaseURL() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(c.Database.DataDir, c.Database.Name)
}

// ServerAddr returns the HTTP listen address
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
