package cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/pkg/models"
)

// Outcome tells which way a sync moved data
type Outcome string

const (
	OutcomeUploaded   Outcome = "uploaded"
	OutcomeDownloaded Outcome = "downloaded"
)

// DeckStore is the local deck and card data
type DeckStore interface {
	Snapshot(ctx context.Context) ([]models.Deck, []models.Card)
	Replace(ctx context.Context, decks []models.Deck, cards []models.Card) error
}

// StatsStore is the local gamification ledger
type StatsStore interface {
	Stats(ctx context.Context) models.UserStats
	Replace(ctx context.Context, stats models.UserStats) error
}

// Syncer reconciles local data with a Remote
type Syncer struct {
	decks  DeckStore
	stats  StatsStore
	remote Remote
	logger logrus.FieldLogger
}

// NewSyncer creates a syncer
func NewSyncer(decks DeckStore, stats StatsStore, remote Remote, logger logrus.FieldLogger) *Syncer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Syncer{decks: decks, stats: stats, remote: remote, logger: logger}
}

// Sync uploads local data when the remote is empty or holds fewer cards, and
// otherwise downloads it. Downloading replaces decks and cards wholesale and
// merges stats keeping the higher progress. Card count is the only signal,
// so edits on the side with fewer cards are lost.
func (s *Syncer) Sync(ctx context.Context, userID string) (Outcome, error) {
	cloud, err := s.remote.Load(ctx, userID)
	if err != nil {
		return "", err
	}

	decks, cards := s.decks.Snapshot(ctx)
	if cloud == nil || len(cloud.Cards) < len(cards) {
		if err := s.Upload(ctx, userID); err != nil {
			return "", err
		}
		return OutcomeUploaded, nil
	}

	if cloud.Decks != nil {
		decks = cloud.Decks
	}
	if cloud.Cards != nil {
		cards = cloud.Cards
	}
	if err := s.decks.Replace(ctx, decks, cards); err != nil {
		return "", fmt.Errorf("store downloaded decks: %w", err)
	}
	if cloud.Stats != nil {
		merged := gamification.MergeStats(s.stats.Stats(ctx), *cloud.Stats)
		if err := s.stats.Replace(ctx, merged); err != nil {
			return "", fmt.Errorf("store merged stats: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"decks":   len(decks),
		"cards":   len(cards),
	}).Info("Data downloaded from cloud")
	return OutcomeDownloaded, nil
}

// Upload overwrites the remote document with local data
func (s *Syncer) Upload(ctx context.Context, userID string) error {
	decks, cards := s.decks.Snapshot(ctx)
	stats := s.stats.Stats(ctx)
	data := CloudData{Decks: decks, Cards: cards, Stats: &stats, LastSyncedAt: time.Now().UTC()}
	if err := s.remote.Save(ctx, userID, data); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"decks":   len(decks),
		"cards":   len(cards),
	}).Info("Data saved to cloud")
	return nil
}

// LastSyncTime reports when the user's document was last written
func (s *Syncer) LastSyncTime(ctx context.Context, userID string) (time.Time, bool, error) {
	cloud, err := s.remote.Load(ctx, userID)
	if err != nil || cloud == nil {
		return time.Time{}, false, err
	}
	return cloud.LastSyncedAt, !cloud.LastSyncedAt.IsZero(), nil
}
