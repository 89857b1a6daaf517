package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/katasensei/internal/tasks"
	"github.com/example/katasensei/pkg/models"
)

// CreateTaskReq schedules a task by preset, by local date and clock, or by instant
type CreateTaskReq struct {
	CardIDs       []string     `json:"cardIds" binding:"required"`
	DeckID        string       `json:"deckId"`
	Title         string       `json:"title"`
	Preset        tasks.Preset `json:"preset"`
	Date          string       `json:"date"` // 2006-01-02
	Time          string       `json:"time"` // 15:04
	ScheduledTime *time.Time   `json:"scheduledTime"`
}

func (r CreateTaskReq) scheduled(now time.Time) (time.Time, error) {
	switch {
	case r.Preset != "":
		return tasks.PresetTime(r.Preset, now)
	case r.Date != "" || r.Time != "":
		return tasks.CustomTime(r.Date, r.Time, now)
	case r.ScheduledTime != nil:
		if r.ScheduledTime.Before(now) {
			return time.Time{}, tasks.ErrPastSchedule
		}
		return *r.ScheduledTime, nil
	default:
		return time.Time{}, fmt.Errorf("%w: preset, date and time, or scheduledTime is required", tasks.ErrInvalidTask)
	}
}

// ListTasks returns every task
func ListTasks(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, nonNil(svc.List(c.Request.Context())))
	}
}

// CreateTask schedules a review task
func CreateTask(svc *tasks.Service, clock func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTaskReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		at, err := req.scheduled(clock())
		if err != nil {
			writeError(c, err)
			return
		}
		task, err := svc.Create(c.Request.Context(), tasks.NewTask{
			CardIDs:       req.CardIDs,
			DeckID:        req.DeckID,
			ScheduledTime: at,
			Title:         req.Title,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, task)
	}
}

// GroupedTasks returns tasks split into overdue, today, upcoming and completed
func GroupedTasks(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.GroupByStatus(c.Request.Context()))
	}
}

// PendingTasks returns the number of tasks needing attention
func PendingTasks(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": svc.PendingCount(c.Request.Context())})
	}
}

// ListPresets returns the quick schedule options
func ListPresets() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, tasks.Presets())
	}
}

// GetTask returns one task
func GetTask(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// UpdateTask replaces a task; reopening a completed task is a conflict
func UpdateTask(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var task models.ReviewTask
		if err := c.ShouldBindJSON(&task); err != nil {
			badRequest(c, err)
			return
		}
		task.ID = c.Param("id")
		updated, err := svc.Update(c.Request.Context(), task)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// CompleteTask marks a task done
func CompleteTask(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := svc.Complete(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

// DeleteTask removes a task
func DeleteTask(svc *tasks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
