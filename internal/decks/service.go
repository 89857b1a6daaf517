package decks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/internal/spaced_repetition"
	"github.com/example/katasensei/pkg/models"
)

var (
	ErrDeckNotFound = errors.New("deck not found")
	ErrCardNotFound = errors.New("card not found")
	ErrInvalidDeck  = errors.New("invalid deck")
	ErrInvalidCard  = errors.New("invalid card")
)

// Service manages decks and the cards they own
type Service struct {
	storage *database.Storage
	sm2     *spaced_repetition.SM2
	logger  logrus.FieldLogger
	clock   func() time.Time

	mu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithScheduler overrides the SM-2 parameters used by GradeCard
func WithScheduler(sm2 *spaced_repetition.SM2) Option {
	return func(s *Service) { s.sm2 = sm2 }
}

// NewService creates a deck service on top of storage
func NewService(storage *database.Storage, logger logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		sm2:     spaced_repetition.NewSM2(),
		logger:  logger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	return s
}

// NewDeck is the input for CreateDeck
type NewDeck struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// DeckUpdate holds the fields to change; nil fields are left alone
type DeckUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) loadDecks(ctx context.Context) []models.Deck {
	return database.Get(ctx, s.storage, database.DecksKey, []models.Deck{})
}

func (s *Service) loadCards(ctx context.Context) []models.Card {
	return database.Get(ctx, s.storage, database.CardsKey, []models.Card{})
}

func (s *Service) saveDecks(ctx context.Context, decks []models.Deck) error {
	return database.Set(ctx, s.storage, database.DecksKey, decks)
}

func (s *Service) saveCards(ctx context.Context, cards []models.Card) error {
	return database.Set(ctx, s.storage, database.CardsKey, cards)
}

// ListDecks returns every deck
func (s *Service) ListDecks(ctx context.Context) []models.Deck {
	return s.loadDecks(ctx)
}

// GetDeck returns the deck with the given id
func (s *Service) GetDeck(ctx context.Context, id string) (models.Deck, error) {
	deck, ok := lo.Find(s.loadDecks(ctx), func(d models.Deck) bool { return d.ID == id })
	if !ok {
		return models.Deck{}, ErrDeckNotFound
	}
	return deck, nil
}

// CreateDeck adds a new empty deck
func (s *Service) CreateDeck(ctx context.Context, in NewDeck) (models.Deck, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Deck{}, fmt.Errorf("%w: name is required", ErrInvalidDeck)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	deck := models.Deck{
		ID:          "deck-" + uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Tags:        normalizeTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.saveDecks(ctx, append(s.loadDecks(ctx), deck)); err != nil {
		return models.Deck{}, fmt.Errorf("error saving deck: %w", err)
	}

	s.logger.WithField("deck_id", deck.ID).Info("deck created")
	return deck, nil
}

// UpdateDeck applies upd to the deck and bumps its UpdatedAt
func (s *Service) UpdateDeck(ctx context.Context, id string, upd DeckUpdate) (models.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks := s.loadDecks(ctx)
	_, idx, ok := lo.FindIndexOf(decks, func(d models.Deck) bool { return d.ID == id })
	if !ok {
		return models.Deck{}, ErrDeckNotFound
	}

	deck := decks[idx]
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return models.Deck{}, fmt.Errorf("%w: name is required", ErrInvalidDeck)
		}
		deck.Name = name
	}
	if upd.Description != nil {
		deck.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Tags != nil {
		deck.Tags = normalizeTags(upd.Tags)
	}
	deck.UpdatedAt = s.now()
	decks[idx] = deck

	if err := s.saveDecks(ctx, decks); err != nil {
		return models.Deck{}, fmt.Errorf("error saving deck: %w", err)
	}
	return deck, nil
}

// DeleteDeck removes the deck and every card that belongs to it
func (s *Service) DeleteDeck(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks := s.loadDecks(ctx)
	remaining := lo.Reject(decks, func(d models.Deck, _ int) bool { return d.ID == id })
	if len(remaining) == len(decks) {
		return ErrDeckNotFound
	}
	if err := s.saveDecks(ctx, remaining); err != nil {
		return fmt.Errorf("error saving decks: %w", err)
	}

	cards := s.loadCards(ctx)
	kept := lo.Reject(cards, func(c models.Card, _ int) bool { return c.DeckID == id })
	if err := s.saveCards(ctx, kept); err != nil {
		return fmt.Errorf("error saving cards: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"deck_id":       id,
		"cards_removed": len(cards) - len(kept),
	}).Info("deck deleted")
	return nil
}

// RestoreDeck puts back a deck together with its cards, e.g. to undo a delete
func (s *Service) RestoreDeck(ctx context.Context, deck models.Deck, cards []models.Card) error {
	if deck.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDeck)
	}

	s.mu.Lock()
	decks := lo.Reject(s.loadDecks(ctx), func(d models.Deck, _ int) bool { return d.ID == deck.ID })
	err := s.saveDecks(ctx, append(decks, deck))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("error saving decks: %w", err)
	}

	owned := lo.Map(cards, func(c models.Card, _ int) models.Card {
		c.DeckID = deck.ID
		return c
	})
	_, err = s.AddCards(ctx, owned)
	return err
}

// ListCards returns the cards of deckID, or every card when deckID is empty
func (s *Service) ListCards(ctx context.Context, deckID string) []models.Card {
	cards := s.loadCards(ctx)
	if deckID == "" {
		return cards
	}
	return lo.Filter(cards, func(c models.Card, _ int) bool { return c.DeckID == deckID })
}

// GetCard returns the card with the given id
func (s *Service) GetCard(ctx context.Context, id string) (models.Card, error) {
	card, ok := lo.Find(s.loadCards(ctx), func(c models.Card) bool { return c.ID == id })
	if !ok {
		return models.Card{}, ErrCardNotFound
	}
	return card, nil
}

// AddCards stores new cards, skipping any whose id already exists.
// Missing ids, timestamps and review state are filled in. It returns the
// number of cards actually added.
func (s *Service) AddCards(ctx context.Context, cards []models.Card) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadCards(ctx)
	seen := make(map[string]struct{}, len(current)+len(cards))
	for _, c := range current {
		seen[c.ID] = struct{}{}
	}

	now := s.now()
	added := 0
	for _, c := range cards {
		if strings.TrimSpace(c.Japanese) == "" || c.DeckID == "" {
			return 0, fmt.Errorf("%w: japanese and deck are required", ErrInvalidCard)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.ReviewMeta.EaseFactor == 0 {
			c.ReviewMeta = spaced_repetition.InitialReviewMeta(now)
		}
		c.Tags = normalizeTags(c.Tags)
		current = append(current, c)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := s.saveCards(ctx, current); err != nil {
		return 0, fmt.Errorf("error saving cards: %w", err)
	}
	s.logger.WithField("count", added).Debug("cards added")
	return added, nil
}

// UpdateCard replaces the stored card that has card.ID
func (s *Service) UpdateCard(ctx context.Context, card models.Card) (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceCard(ctx, card)
}

func (s *Service) replaceCard(ctx context.Context, card models.Card) (models.Card, error) {
	cards := s.loadCards(ctx)
	_, idx, ok := lo.FindIndexOf(cards, func(c models.Card) bool { return c.ID == card.ID })
	if !ok {
		return models.Card{}, ErrCardNotFound
	}
	card.Tags = normalizeTags(card.Tags)
	cards[idx] = card
	if err := s.saveCards(ctx, cards); err != nil {
		return models.Card{}, fmt.Errorf("error saving cards: %w", err)
	}
	return card, nil
}

// DeleteCard removes a single card
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.loadCards(ctx)
	kept := lo.Reject(cards, func(c models.Card, _ int) bool { return c.ID == id })
	if len(kept) == len(cards) {
		return ErrCardNotFound
	}
	if err := s.saveCards(ctx, kept); err != nil {
		return fmt.Errorf("error saving cards: %w", err)
	}
	return nil
}

// GradeCard runs SM-2 on the card and persists the new review state
func (s *Service) GradeCard(ctx context.Context, id string, q spaced_repetition.Quality) (models.Card, error) {
	if !q.Valid() {
		return models.Card{}, fmt.Errorf("%w: grade %d out of range 0-5", ErrInvalidCard, q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := lo.Find(s.loadCards(ctx), func(c models.Card) bool { return c.ID == id })
	if !ok {
		return models.Card{}, ErrCardNotFound
	}
	graded := s.sm2.GradeCard(card, q, s.now())
	if _, err := s.replaceCard(ctx, graded); err != nil {
		return models.Card{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"card_id":  id,
		"quality":  int(q),
		"interval": graded.ReviewMeta.Interval,
	}).Debug("card graded")
	return graded, nil
}

// DueCards returns every card whose next review is at or before now
func (s *Service) DueCards(ctx context.Context) []models.Card {
	return spaced_repetition.DueCards(s.loadCards(ctx), s.now())
}

// DueCount returns the number of due cards
func (s *Service) DueCount(ctx context.Context) int {
	now := s.now()
	return lo.CountBy(s.loadCards(ctx), func(c models.Card) bool {
		return spaced_repetition.IsDue(c.ReviewMeta, now)
	})
}

// StudyQueue returns up to limit due cards of deckID in study order
func (s *Service) StudyQueue(ctx context.Context, deckID string, limit int) []models.Card {
	return spaced_repetition.NextCards(s.ListCards(ctx, deckID), s.now(), limit)
}

// Snapshot returns all decks and cards
func (s *Service) Snapshot(ctx context.Context) ([]models.Deck, []models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadDecks(ctx), s.loadCards(ctx)
}

// Replace overwrites all decks and cards
func (s *Service) Replace(ctx context.Context, decks []models.Deck, cards []models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if decks == nil {
		decks = []models.Deck{}
	}
	if cards == nil {
		cards = []models.Card{}
	}
	if err := s.saveDecks(ctx, decks); err != nil {
		return fmt.Errorf("error saving decks: %w", err)
	}
	if err := s.saveCards(ctx, cards); err != nil {
		return fmt.Errorf("error saving cards: %w", err)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := lo.Uniq(lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.TrimSpace(t)
		return t, t != ""
	}))
	if out == nil {
		return []string{}
	}
	return out
}
