package decks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/katasensei/pkg/models"
)

// BackupVersion is written into every full backup
const BackupVersion = 1

// ExportDeck renders a single deck and its cards in the shareable format
func (s *Service) ExportDeck(ctx context.Context, id string) ([]byte, error) {
	deck, err := s.GetDeck(ctx, id)
	if err != nil {
		return nil, err
	}
	cards := s.ListCards(ctx, id)
	if cards == nil {
		cards = []models.Card{}
	}
	export := models.DeckExport{
		ID:          deck.ID,
		Title:       deck.Name,
		Description: deck.Description,
		Tags:        deck.Tags,
		Cards:       cards,
	}
	if export.Tags == nil {
		export.Tags = []string{}
	}
	return json.MarshalIndent(export, "", "  ")
}

// ImportDeck restores a deck from the shareable format. The deck keeps its
// exported id so that re-importing the same file does not duplicate cards.
func (s *Service) ImportDeck(ctx context.Context, data []byte) (models.Deck, int, error) {
	var export models.DeckExport
	if err := json.Unmarshal(data, &export); err != nil {
		return models.Deck{}, 0, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
	}
	if export.ID == "" || export.Title == "" {
		return models.Deck{}, 0, fmt.Errorf("%w: id and title are required", ErrInvalidDeck)
	}

	now := s.now()
	deck := models.Deck{
		ID:          export.ID,
		Name:        export.Title,
		Description: export.Description,
		Tags:        normalizeTags(export.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	before := len(s.ListCards(ctx, deck.ID))
	if err := s.RestoreDeck(ctx, deck, export.Cards); err != nil {
		return models.Deck{}, 0, err
	}
	return deck, len(s.ListCards(ctx, deck.ID)) - before, nil
}

// ExportAll renders every deck and card as a full backup
func (s *Service) ExportAll(ctx context.Context) ([]byte, error) {
	decks, cards := s.Snapshot(ctx)
	payload := models.BackupPayload{
		Version:    BackupVersion,
		ExportedAt: s.now(),
		Decks:      decks,
		Cards:      cards,
	}
	return json.MarshalIndent(payload, "", "  ")
}

// ImportAll replaces all decks and cards with the contents of a full backup.
// A payload whose decks or cards are not arrays is rejected with false and
// stored data is left untouched; the error is only set for storage failures.
func (s *Service) ImportAll(ctx context.Context, data []byte) (bool, error) {
	var raw struct {
		Decks json.RawMessage `json:"decks"`
		Cards json.RawMessage `json:"cards"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.WithError(err).Warn("failed to parse backup")
		return false, nil
	}
	if !isArray(raw.Decks) || !isArray(raw.Cards) {
		s.logger.Warn("invalid backup format: missing decks or cards array")
		return false, nil
	}

	var decks []models.Deck
	var cards []models.Card
	if err := json.Unmarshal(raw.Decks, &decks); err != nil {
		s.logger.WithError(err).Warn("invalid decks in backup")
		return false, nil
	}
	if err := json.Unmarshal(raw.Cards, &cards); err != nil {
		s.logger.WithError(err).Warn("invalid cards in backup")
		return false, nil
	}

	if err := s.Replace(ctx, decks, cards); err != nil {
		return false, err
	}
	s.logger.WithField("decks", len(decks)).WithField("cards", len(cards)).Info("backup imported")
	return true, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
