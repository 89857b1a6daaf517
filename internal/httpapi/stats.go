package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/katasensei/internal/gamification"
)

type answerReq struct {
	Correct *bool `json:"correct" binding:"required"`
}

type xpReq struct {
	Amount int `json:"amount" binding:"min=0,max=1000000"`
}

type studyTimeReq struct {
	Ms int64 `json:"ms" binding:"min=0"`
}

type dailyTargetReq struct {
	Target int `json:"target"`
}

// GetStats returns the ledger
func GetStats(ledger *gamification.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ledger.Stats(c.Request.Context()))
	}
}

// TodayProgress returns progress toward today's target
func TodayProgress(ledger *gamification.Ledger, clock func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ledger.TodayProgress(c.Request.Context(), clock()))
	}
}

// RecordAnswer counts one answer in today's session
func RecordAnswer(ledger *gamification.Ledger, clock func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req answerReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		stats, err := ledger.RecordAnswer(c.Request.Context(), *req.Correct, clock())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// AddXP credits experience and reports a level-up
func AddXP(ledger *gamification.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req xpReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		levelUp, err := ledger.AddXP(ctx, req.Amount)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"levelUp": levelUp, "stats": ledger.Stats(ctx)})
	}
}

// RecordStudyTime adds study time to today's session
func RecordStudyTime(ledger *gamification.Ledger, clock func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req studyTimeReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		stats, err := ledger.RecordStudyTime(c.Request.Context(), req.Ms, clock())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// UpdateStreak records study activity for today
func UpdateStreak(ledger *gamification.Ledger, clock func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := ledger.UpdateStreak(c.Request.Context(), clock())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// SetDailyTarget changes the daily card target, clamped to at least 1
func SetDailyTarget(ledger *gamification.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dailyTargetReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		target, err := ledger.SetDailyTarget(c.Request.Context(), req.Target)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dailyTarget": target})
	}
}
