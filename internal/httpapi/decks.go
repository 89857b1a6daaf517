package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/spaced_repetition"
	"github.com/example/katasensei/internal/study"
	"github.com/example/katasensei/pkg/models"
)

// GradeReq grades a card either on the 0-5 scale or as a binary answer
type GradeReq struct {
	Quality *int  `json:"quality"`
	Correct *bool `json:"correct"`
}

// ListDecks returns every deck
func ListDecks(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ListDecks(c.Request.Context()))
	}
}

// GetDeck returns one deck
func GetDeck(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		deck, err := svc.GetDeck(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, deck)
	}
}

// CreateDeck adds a deck
func CreateDeck(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decks.NewDeck
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		deck, err := svc.CreateDeck(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, deck)
	}
}

// UpdateDeck changes the fields present in the body
func UpdateDeck(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decks.DeckUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		deck, err := svc.UpdateDeck(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, deck)
	}
}

// DeleteDeck removes a deck and its cards
func DeleteDeck(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteDeck(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListDeckCards returns the cards of one deck
func ListDeckCards(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, err := svc.GetDeck(ctx, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(svc.ListCards(ctx, c.Param("id"))))
	}
}

// AddCards stores a batch of cards in the deck
func AddCards(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		deckID := c.Param("id")
		if _, err := svc.GetDeck(ctx, deckID); err != nil {
			writeError(c, err)
			return
		}

		var cards []models.Card
		if err := c.ShouldBindJSON(&cards); err != nil {
			badRequest(c, err)
			return
		}
		for i := range cards {
			cards[i].DeckID = deckID
		}
		added, err := svc.AddCards(ctx, cards)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"added": added})
	}
}

// ExportDeck downloads one deck in the shareable format
func ExportDeck(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := svc.ExportDeck(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "deck-"+c.Param("id")+".json"))
		c.Data(http.StatusOK, "application/json", data)
	}
}

// ImportDeck restores a deck from the shareable format
func ImportDeck(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			badRequest(c, err)
			return
		}
		deck, added, err := svc.ImportDeck(c.Request.Context(), body)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deck": deck, "added": added})
	}
}

// ListCards returns all cards, or one deck's when ?deck= is set
func ListCards(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, nonNil(svc.ListCards(c.Request.Context(), c.Query("deck"))))
	}
}

// GetCard returns one card
func GetCard(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		card, err := svc.GetCard(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

// UpdateCard replaces a card; the path id wins over the body's
func UpdateCard(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var card models.Card
		if err := c.ShouldBindJSON(&card); err != nil {
			badRequest(c, err)
			return
		}
		card.ID = c.Param("id")
		updated, err := svc.UpdateCard(c.Request.Context(), card)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteCard removes a card
func DeleteCard(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteCard(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GradeCard runs SM-2 on the card and credits the answer to the ledger
func GradeCard(rec *study.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GradeReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		var q spaced_repetition.Quality
		switch {
		case req.Quality != nil:
			q = spaced_repetition.Quality(*req.Quality)
		case req.Correct != nil:
			q = spaced_repetition.QualityFromAnswer(*req.Correct)
		default:
			badRequest(c, fmt.Errorf("quality or correct is required"))
			return
		}

		res, err := rec.Review(c.Request.Context(), c.Param("id"), q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// DueCards returns the study queue, optionally for one deck and capped by ?limit=
func DueCards(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				badRequest(c, fmt.Errorf("invalid limit %q", s))
				return
			}
			limit = n
		}
		c.JSON(http.StatusOK, nonNil(svc.StudyQueue(c.Request.Context(), c.Query("deck"), limit)))
	}
}

// DueCount returns how many cards are due
func DueCount(svc *decks.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"count": svc.DueCount(c.Request.Context())})
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
