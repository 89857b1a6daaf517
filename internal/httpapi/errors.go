package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/tasks"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, decks.ErrDeckNotFound),
		errors.Is(err, decks.ErrCardNotFound),
		errors.Is(err, tasks.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, decks.ErrInvalidDeck),
		errors.Is(err, decks.ErrInvalidCard),
		errors.Is(err, tasks.ErrInvalidTask),
		errors.Is(err, tasks.ErrUnknownPreset),
		errors.Is(err, tasks.ErrPastSchedule):
		return http.StatusBadRequest
	case errors.Is(err, tasks.ErrTaskCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
