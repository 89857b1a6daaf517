package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/internal/study"
	"github.com/example/katasensei/internal/tasks"
)

// Deps are the services exposed over HTTP
type Deps struct {
	Decks  *decks.Service
	Tasks  *tasks.Service
	Ledger *gamification.Ledger
	Study  *study.Recorder
	Logger logrus.FieldLogger
	Clock  func() time.Time
}

// NewRouter builds the JSON API
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Study == nil {
		d.Study = study.NewRecorder(d.Decks, d.Ledger, d.Logger)
		d.Study.SetClock(d.Clock)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Logger), cors())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	{
		// === Decks ===
		api.GET("/decks", ListDecks(d.Decks))
		api.POST("/decks", CreateDeck(d.Decks))
		api.POST("/decks/import", ImportDeck(d.Decks))
		api.GET("/decks/:id", GetDeck(d.Decks))
		api.PUT("/decks/:id", UpdateDeck(d.Decks))
		api.DELETE("/decks/:id", DeleteDeck(d.Decks))
		api.GET("/decks/:id/cards", ListDeckCards(d.Decks))
		api.POST("/decks/:id/cards", AddCards(d.Decks))
		api.GET("/decks/:id/export", ExportDeck(d.Decks))

		// === Cards ===
		api.GET("/cards", ListCards(d.Decks))
		api.GET("/cards/:id", GetCard(d.Decks))
		api.PUT("/cards/:id", UpdateCard(d.Decks))
		api.DELETE("/cards/:id", DeleteCard(d.Decks))
		api.POST("/cards/:id/grade", GradeCard(d.Study))
		api.GET("/due", DueCards(d.Decks))
		api.GET("/due/count", DueCount(d.Decks))

		// === Review tasks ===
		api.GET("/tasks", ListTasks(d.Tasks))
		api.POST("/tasks", CreateTask(d.Tasks, d.Clock))
		api.GET("/tasks/grouped", GroupedTasks(d.Tasks))
		api.GET("/tasks/pending", PendingTasks(d.Tasks))
		api.GET("/tasks/presets", ListPresets())
		api.GET("/tasks/:id", GetTask(d.Tasks))
		api.PUT("/tasks/:id", UpdateTask(d.Tasks))
		api.POST("/tasks/:id/complete", CompleteTask(d.Tasks))
		api.DELETE("/tasks/:id", DeleteTask(d.Tasks))

		// === Stats ===
		api.GET("/stats", GetStats(d.Ledger))
		api.GET("/stats/today", TodayProgress(d.Ledger, d.Clock))
		api.POST("/stats/answer", RecordAnswer(d.Ledger, d.Clock))
		api.POST("/stats/xp", AddXP(d.Ledger))
		api.POST("/stats/study-time", RecordStudyTime(d.Ledger, d.Clock))
		api.POST("/stats/streak", UpdateStreak(d.Ledger, d.Clock))
		api.PUT("/stats/daily-target", SetDailyTarget(d.Ledger))

		// === Backup ===
		api.GET("/backup", ExportBackup(d.Decks))
		api.POST("/backup", ImportBackup(d.Decks))
	}
	return r
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
