package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/katasensei/pkg/models"
)

const (
	// DefaultEaseFactor is the ease of a card that has never been graded
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor the ease factor is clamped to
	MinEaseFactor = 1.3

	day = 24 * time.Hour
)

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Grades at or above the threshold count as a successful recall
	PassThreshold Quality
	// Maximum interval in days
	MaxInterval int
}

// NewSM2 creates an SM2 with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold: QualityCorrectDifficult,
		MaxInterval:   365,
	}
}

// Quality represents the quality of a response on the 0-5 SM-2 scale
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect Quality = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct response but required significant effort
	QualityCorrectDifficult Quality = 3
	// Correct response after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect response with no hesitation
	QualityPerfect Quality = 5
)

// Valid reports whether q is on the 0-5 scale
func (q Quality) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// QualityFromAnswer maps a binary outcome onto the 0-5 scale
func QualityFromAnswer(correct bool) Quality {
	if correct {
		return QualityCorrectHesitation
	}
	return QualityIncorrect
}

// InitialReviewMeta returns the scheduling state of a new card, due immediately
func InitialReviewMeta(now time.Time) models.ReviewMeta {
	return models.ReviewMeta{
		Repetitions: 0,
		EaseFactor:  DefaultEaseFactor,
		Interval:    0,
		NextReview:  now.UTC(),
	}
}

// NextEaseFactor applies the SM-2 ease adjustment for quality q
func NextEaseFactor(ef float64, q Quality) float64 {
	if ef == 0 {
		ef = DefaultEaseFactor
	}
	d := float64(QualityPerfect - q)
	next := ef + (0.1 - d*(0.08+d*0.02))
	if next < MinEaseFactor {
		next = MinEaseFactor
	}
	return next
}

// Grade computes the review state after grading meta with quality q at now.
// It is a pure function of its inputs.
func (sm *SM2) Grade(meta models.ReviewMeta, q Quality, now time.Time) models.ReviewMeta {
	if q < QualityBlackout {
		q = QualityBlackout
	} else if q > QualityPerfect {
		q = QualityPerfect
	}
	now = now.UTC()

	next := meta
	next.EaseFactor = NextEaseFactor(meta.EaseFactor, q)

	if q >= sm.PassThreshold {
		next.Repetitions = meta.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			prev := meta.Interval
			if prev < 1 {
				prev = 1
			}
			next.Interval = int(math.Round(float64(prev) * next.EaseFactor))
		}
		if sm.MaxInterval > 0 && next.Interval > sm.MaxInterval {
			next.Interval = sm.MaxInterval
		}
	} else {
		// Incorrect response - start over tomorrow
		next.Repetitions = 0
		next.Interval = 1
	}

	reviewed := now
	next.LastReviewed = &reviewed
	next.NextReview = now.Add(time.Duration(next.Interval) * day)
	return next
}

// GradeCard returns a copy of card with its review state graded
func (sm *SM2) GradeCard(card models.Card, q Quality, now time.Time) models.Card {
	card.ReviewMeta = sm.Grade(card.ReviewMeta, q, now)
	return card
}

// IsDue reports whether the card's next review is at or before now
func IsDue(meta models.ReviewMeta, now time.Time) bool {
	return !meta.NextReview.After(now)
}

// DueCards returns the cards due at now, preserving order
func DueCards(cards []models.Card, now time.Time) []models.Card {
	var due []models.Card
	for _, c := range cards {
		if IsDue(c.ReviewMeta, now) {
			due = append(due, c)
		}
	}
	return due
}

// NextCards returns up to limit due cards ordered for a study session:
// never-reviewed cards first, then harder cards (lower ease), then the most overdue
func NextCards(cards []models.Card, now time.Time, limit int) []models.Card {
	due := DueCards(cards, now)

	sort.SliceStable(due, func(i, j int) bool {
		ri, rj := due[i].ReviewMeta, due[j].ReviewMeta

		// First priority: cards that have never been reviewed
		newI, newJ := ri.LastReviewed == nil, rj.LastReviewed == nil
		if newI != newJ {
			return newI
		}

		// Second priority: lower ease factor (harder cards)
		if ri.EaseFactor != rj.EaseFactor {
			return ri.EaseFactor < rj.EaseFactor
		}

		// Third priority: more overdue
		return ri.NextReview.Before(rj.NextReview)
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}

// IsMastered determines if a card is considered "mastered"
func IsMastered(meta models.ReviewMeta) bool {
	// A card is considered mastered if:
	// 1. It has been recalled correctly at least 5 times in a row
	// 2. The interval is at least 30 days
	return meta.Repetitions >= 5 && meta.Interval >= 30
}

// MasteryLevel buckets a card's progress into 0 (new or lapsed) .. 5 (mastered)
func MasteryLevel(meta models.ReviewMeta) int {
	if IsMastered(meta) {
		return 5
	}
	if meta.Repetitions > 4 {
		return 4
	}
	return meta.Repetitions
}
