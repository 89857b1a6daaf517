package decks

import (
	"context"
	"fmt"
	"time"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/internal/spaced_repetition"
	"github.com/example/katasensei/pkg/models"
)

type seedCard struct {
	id, deckID, romaji, japanese, indonesia, example string
	tags                                             []string
}

var seedCards = []seedCard{
	{"m1", "deck-makanan", "tamago", "卵", "Telur", "卵を割る。", []string{"makanan"}},
	{"m2", "deck-makanan", "sushi", "寿司", "Sushi", "寿司は美味しい。", []string{"makanan"}},
	{"m3", "deck-makanan", "tempura", "天ぷら", "Tempura", "天ぷらを食べる。", []string{"makanan"}},
	{"d1", "deck-minuman", "juusu", "ジュース", "Jus", "ジュースを飲む。", []string{"minuman"}},
	{"d2", "deck-minuman", "ocha", "お茶", "Teh", "お茶を飲む。", []string{"minuman"}},
	{"k1", "deck-basics", "konnichiwa", "こんにちは", "Selamat siang / Halo", "こんにちは、元気ですか？", []string{"sapaan", "dasar"}},
	{"k2", "deck-basics", "arigatou", "ありがとう", "Terima kasih", "手伝ってくれてありがとう。", []string{"politeness"}},
}

func seedDecks(now time.Time) []models.Deck {
	jan := func(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }
	return []models.Deck{
		{ID: "deck-makanan", Name: "Makanan", Description: "Kosakata tentang makanan dan minuman", Tags: []string{"vocab", "makanan"}, CreatedAt: jan(1), UpdatedAt: now},
		{ID: "deck-minuman", Name: "Minuman", Description: "Jenis-jenis minuman dalam bahasa Jepang", Tags: []string{"vocab", "minuman"}, CreatedAt: jan(1), UpdatedAt: now},
		{ID: "deck-basics", Name: "Greetings & Basics", Description: "Essential phrases for daily conversation", Tags: []string{"basics", "sapaan"}, CreatedAt: jan(2), UpdatedAt: now},
	}
}

// Seed writes the sample decks on first run. Cards are only seeded when no
// card collection exists yet. It reports whether anything was written.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := database.Get[[]models.Deck](ctx, s.storage, database.DecksKey, nil); existing != nil {
		return false, nil
	}

	now := s.now()
	if err := s.saveDecks(ctx, seedDecks(now)); err != nil {
		return false, fmt.Errorf("error seeding decks: %w", err)
	}

	if existing := database.Get[[]models.Card](ctx, s.storage, database.CardsKey, nil); existing == nil {
		cards := make([]models.Card, 0, len(seedCards))
		for _, sc := range seedCards {
			cards = append(cards, models.Card{
				ID:         sc.id,
				DeckID:     sc.deckID,
				Japanese:   sc.japanese,
				Romaji:     sc.romaji,
				Indonesia:  sc.indonesia,
				Example:    sc.example,
				Tags:       sc.tags,
				CreatedAt:  now,
				ReviewMeta: spaced_repetition.InitialReviewMeta(now),
			})
		}
		if err := s.saveCards(ctx, cards); err != nil {
			return false, fmt.Errorf("error seeding cards: %w", err)
		}
	}

	s.logger.Info("sample decks seeded")
	return true, nil
}
