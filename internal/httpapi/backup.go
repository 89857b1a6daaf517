package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/katasensei/internal/decks"
)

// ExportBackup downloads every deck and card
func ExportBackup(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := svc.ExportAll(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="katasensei-backup.json"`)
		c.Data(http.StatusOK, "application/json", data)
	}
}

// ImportBackup replaces all decks and cards; a malformed payload changes nothing
func ImportBackup(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			badRequest(c, err)
			return
		}
		ok, err := svc.ImportAll(c.Request.Context(), body)
		if err != nil {
			writeError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid backup payload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"imported": true})
	}
}
