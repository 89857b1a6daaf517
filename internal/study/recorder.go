package study

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/arcade"
	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/internal/spaced_repetition"
	"github.com/example/katasensei/pkg/models"
)

// Result is the outcome of one review
type Result struct {
	Card    models.Card          `json:"card"`
	LevelUp gamification.LevelUp `json:"levelUp"`
}

// Recorder applies a review to both the card schedule and the ledger
type Recorder struct {
	decks  *decks.Service
	ledger *gamification.Ledger
	logger logrus.FieldLogger
	clock  func() time.Time
}

// NewRecorder creates a recorder
func NewRecorder(decks *decks.Service, ledger *gamification.Ledger, logger logrus.FieldLogger) *Recorder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{decks: decks, ledger: ledger, logger: logger, clock: time.Now}
}

// SetClock overrides the time source used for the ledger
func (r *Recorder) SetClock(clock func() time.Time) {
	r.clock = clock
}

// Review grades the card, then counts the answer, the day's streak and the XP.
// The grade is already saved when the ledger is written, so ledger failures
// are logged and the graded card is still returned.
func (r *Recorder) Review(ctx context.Context, cardID string, q spaced_repetition.Quality) (Result, error) {
	card, err := r.decks.GradeCard(ctx, cardID, q)
	if err != nil {
		return Result{}, err
	}

	now := r.clock()
	correct := q >= spaced_repetition.QualityCorrectDifficult
	logger := r.logger.WithField("card_id", cardID)
	if _, err := r.ledger.UpdateStreak(ctx, now); err != nil {
		logger.WithError(err).Warn("Failed to update streak")
	}
	if _, err := r.ledger.RecordAnswer(ctx, correct, now); err != nil {
		logger.WithError(err).Warn("Failed to record answer")
	}
	levelUp, err := r.ledger.AddXP(ctx, gamification.XPForAnswer(correct))
	if err != nil {
		logger.WithError(err).Warn("Failed to add xp")
	}
	return Result{Card: card, LevelUp: levelUp}, nil
}

// HandleEvent grades the round's answer card from arcade play: a hit is a
// correct answer, every wrong pick a failed one
func (r *Recorder) HandleEvent(ev arcade.Event) {
	var correct bool
	switch ev.Type {
	case arcade.EventTargetHit:
		correct = true
	case arcade.EventWrongTarget:
		correct = false
	default:
		return
	}
	if ev.Answer.ID == "" {
		return
	}

	res, err := r.Review(context.Background(), ev.Answer.ID, spaced_repetition.QualityFromAnswer(correct))
	if err != nil {
		r.logger.WithError(err).WithField("card_id", ev.Answer.ID).Warn("Failed to record arcade answer")
		return
	}
	if res.LevelUp.LeveledUp {
		r.logger.WithField("level", res.LevelUp.Level).Info("Level up from arcade")
	}
}
