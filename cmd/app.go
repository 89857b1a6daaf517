package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/example/katasensei/internal/config"
	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/internal/study"
	"github.com/example/katasensei/internal/tasks"
	"github.com/example/katasensei/pkg/models"
)

// app holds the services every command works with
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *sqlx.DB

	decks  *decks.Service
	tasks  *tasks.Service
	ledger *gamification.Ledger
	study  *study.Recorder
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// newApp loads config, opens the local store and seeds it on first run
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWith(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)

	db, err := database.Connect(cfg.Database.Driver, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	storage := database.NewStorage(database.NewSQLStore(db), logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		decks:  decks.NewService(storage, logger),
		tasks:  tasks.NewService(storage, logger),
		ledger: gamification.NewLedger(storage, logger),
	}
	a.study = study.NewRecorder(a.decks, a.ledger, logger)

	seeded, err := a.decks.Seed(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if seeded {
		logger.Info("Seeded sample decks")
	}
	a.applyDailyTarget(ctx, seeded)
	return a, nil
}

// applyDailyTarget stores the configured target on first run, and on later
// runs whenever it is set to something other than the default. Without
// configuration the target set through `stats --target` is kept.
func (a *app) applyDailyTarget(ctx context.Context, firstRun bool) {
	target := a.cfg.Study.DailyTarget
	if !firstRun && target == config.DefaultDailyTarget {
		return
	}
	if a.ledger.Stats(ctx).DailyTarget == target {
		return
	}
	if _, err := a.ledger.SetDailyTarget(ctx, target); err != nil {
		a.logger.WithError(err).Warn("Failed to apply daily target")
	}
}

func (a *app) Close() error {
	return a.db.Close()
}

// DueCount, PendingCount, Stats and TodayProgress let the bot report on the app

func (a *app) DueCount(ctx context.Context) int {
	return a.decks.DueCount(ctx)
}

func (a *app) PendingCount(ctx context.Context) int {
	return a.tasks.PendingCount(ctx)
}

func (a *app) Stats(ctx context.Context) models.UserStats {
	return a.ledger.Stats(ctx)
}

func (a *app) TodayProgress(ctx context.Context, now time.Time) gamification.Progress {
	return a.ledger.TodayProgress(ctx, now)
}
