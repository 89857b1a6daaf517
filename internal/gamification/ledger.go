package gamification

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/pkg/models"
)

const (
	// DefaultDailyTarget is used for stats that predate the daily target
	DefaultDailyTarget = 20
	// HistoryLimit is the number of daily sessions kept
	HistoryLimit = 30

	xpCorrect   = 10
	xpWrong     = 2
	levelGrowth = 1.2
	dateLayout  = "2006-01-02"
)

// InitialStats returns the ledger of a learner who has never studied
func InitialStats() models.UserStats {
	return models.UserStats{
		Level:        1,
		NextLevelXP:  100,
		DailyTarget:  DefaultDailyTarget,
		StudyHistory: []models.StudySession{},
	}
}

// statsSchema versions the stored stats document.
// v1 is the bare stats object, v2 adds dailyTarget.
var statsSchema = database.Schema{
	Current: 2,
	Upgrades: map[int]database.UpgradeFunc{
		1: func(data json.RawMessage) (json.RawMessage, error) {
			var doc map[string]json.RawMessage
			if err := json.Unmarshal(data, &doc); err != nil {
				return nil, err
			}
			if _, ok := doc["dailyTarget"]; !ok {
				doc["dailyTarget"] = json.RawMessage(fmt.Sprint(DefaultDailyTarget))
			}
			return json.Marshal(doc)
		},
	},
}

// LevelUp reports the outcome of AddXP
type LevelUp struct {
	LeveledUp bool `json:"leveledUp"`
	Level     int  `json:"level"`
}

// Progress is today's study count against the daily target
type Progress struct {
	Date     string `json:"date"`
	Reviewed int    `json:"reviewed"`
	Target   int    `json:"target"`
	Percent  int    `json:"percent"`
	Reached  bool   `json:"reached"`
}

// Ledger keeps the learner's streak, XP and study history
type Ledger struct {
	storage *database.Storage
	logger  logrus.FieldLogger
	mu      sync.Mutex
}

// NewLedger creates a ledger on top of storage
func NewLedger(storage *database.Storage, logger logrus.FieldLogger) *Ledger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ledger{storage: storage, logger: logger}
}

// Stats returns the stored stats, or the initial stats when nothing valid is stored
func (l *Ledger) Stats(ctx context.Context) models.UserStats {
	raw := database.Get[json.RawMessage](ctx, l.storage, database.StatsKey, nil)
	if raw == nil {
		return InitialStats()
	}
	data, err := statsSchema.Decode(raw)
	if err != nil {
		l.logger.WithError(err).Warn("unreadable stats document, using defaults")
		return InitialStats()
	}

	// Decoding over the defaults fills fields missing from older documents
	stats := InitialStats()
	if err := json.Unmarshal(data, &stats); err != nil {
		l.logger.WithError(err).Warn("corrupt stats document, using defaults")
		return InitialStats()
	}
	return normalize(stats)
}

func (l *Ledger) save(ctx context.Context, stats models.UserStats) error {
	raw, err := statsSchema.Encode(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := database.Set(ctx, l.storage, database.StatsKey, json.RawMessage(raw)); err != nil {
		return fmt.Errorf("error saving stats: %w", err)
	}
	return nil
}

func (l *Ledger) update(ctx context.Context, fn func(*models.UserStats)) (models.UserStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.Stats(ctx)
	fn(&stats)
	if err := l.save(ctx, stats); err != nil {
		return models.UserStats{}, err
	}
	return stats, nil
}

// Replace overwrites the stored stats
func (l *Ledger) Replace(ctx context.Context, stats models.UserStats) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx, normalize(stats))
}

// UpdateStreak records study activity on now's calendar day. Calling it
// again on the same day changes nothing.
func (l *Ledger) UpdateStreak(ctx context.Context, now time.Time) (models.UserStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := l.Stats(ctx)
	next := ApplyStreak(stats, now)
	if next.LastStudyDate == stats.LastStudyDate && next.Streak == stats.Streak {
		return stats, nil
	}
	if err := l.save(ctx, next); err != nil {
		return models.UserStats{}, err
	}
	if next.Streak > 1 {
		l.logger.WithField("streak", next.Streak).Info("study streak continued")
	}
	return next, nil
}

// AddXP adds amount and applies any level-ups
func (l *Ledger) AddXP(ctx context.Context, amount int) (LevelUp, error) {
	var result LevelUp
	_, err := l.update(ctx, func(s *models.UserStats) {
		*s, result = ApplyXP(*s, amount)
	})
	if err != nil {
		return LevelUp{}, err
	}
	if result.LeveledUp {
		l.logger.WithField("level", result.Level).Info("level up")
	}
	return result, nil
}

// RecordAnswer counts one reviewed card in today's session
func (l *Ledger) RecordAnswer(ctx context.Context, correct bool, now time.Time) (models.UserStats, error) {
	return l.update(ctx, func(s *models.UserStats) {
		session := sessionFor(s, now)
		session.CardsReviewed++
		s.TotalCardsReviewed++
		if correct {
			session.CorrectCount++
			s.TotalCorrect++
		} else {
			session.WrongCount++
			s.TotalWrong++
		}
		trimHistory(s)
	})
}

// RecordStudyTime adds ms of study time to today's session
func (l *Ledger) RecordStudyTime(ctx context.Context, ms int64, now time.Time) (models.UserStats, error) {
	if ms < 0 {
		ms = 0
	}
	return l.update(ctx, func(s *models.UserStats) {
		session := sessionFor(s, now)
		session.StudyTimeMs += ms
		s.TotalStudyTimeMs += ms
		trimHistory(s)
	})
}

// SetDailyTarget stores the number of cards per day, clamped to at least 1
func (l *Ledger) SetDailyTarget(ctx context.Context, n int) (int, error) {
	if n < 1 {
		n = 1
	}
	if _, err := l.update(ctx, func(s *models.UserStats) { s.DailyTarget = n }); err != nil {
		return 0, err
	}
	return n, nil
}

// TodayProgress reports how many cards were reviewed on now's calendar day
func (l *Ledger) TodayProgress(ctx context.Context, now time.Time) Progress {
	stats := l.Stats(ctx)
	p := Progress{Date: now.Format(dateLayout), Target: stats.DailyTarget}
	for _, session := range stats.StudyHistory {
		if session.Date == p.Date {
			p.Reviewed = session.CardsReviewed
			break
		}
	}
	p.Percent = int(math.Min(100, math.Floor(float64(p.Reviewed)*100/float64(p.Target))))
	p.Reached = p.Reviewed >= p.Target
	return p
}

// XPForAnswer is the XP awarded for a single answer
func XPForAnswer(correct bool) int {
	if correct {
		return xpCorrect
	}
	return xpWrong
}

// ApplyStreak returns stats with the streak advanced for activity at now
func ApplyStreak(stats models.UserStats, now time.Time) models.UserStats {
	today := now.Format(dateLayout)
	last := stats.LastStudyDate
	if len(last) > len(dateLayout) {
		last = last[:len(dateLayout)]
	}
	if last == today {
		return stats
	}

	y, m, d := now.Date()
	yesterday := time.Date(y, m, d-1, 12, 0, 0, 0, now.Location()).Format(dateLayout)
	if last != "" && last == yesterday {
		stats.Streak++
	} else {
		stats.Streak = 1
	}
	if stats.Streak > stats.MaxStreak {
		stats.MaxStreak = stats.Streak
	}
	stats.LastStudyDate = today
	return stats
}

// ApplyXP adds amount to stats and levels up while the threshold is reached.
// Negative amounts count as zero; XP and thresholds saturate at math.MaxInt.
func ApplyXP(stats models.UserStats, amount int) (models.UserStats, LevelUp) {
	stats = normalize(stats)
	if amount > 0 {
		if amount > math.MaxInt-stats.CurrentXP {
			stats.CurrentXP = math.MaxInt
		} else {
			stats.CurrentXP += amount
		}
	}

	leveled := false
	for stats.CurrentXP >= stats.NextLevelXP {
		stats.CurrentXP -= stats.NextLevelXP
		stats.Level++
		stats.NextLevelXP = nextThreshold(stats.NextLevelXP)
		leveled = true
	}
	return stats, LevelUp{LeveledUp: leveled, Level: stats.Level}
}

// nextThreshold grows n by levelGrowth, by at least one, saturating at math.MaxInt
func nextThreshold(n int) int {
	next := math.Floor(float64(n) * levelGrowth)
	if next >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return max(int(next), n+1)
}

// MergeStats combines local stats with a remote copy, keeping the higher
// progress. XP follows whichever side has the higher level.
func MergeStats(local, remote models.UserStats) models.UserStats {
	local, remote = normalize(local), normalize(remote)

	merged := remote
	merged.Streak = max(local.Streak, remote.Streak)
	merged.MaxStreak = max(local.MaxStreak, remote.MaxStreak)
	merged.Level = max(local.Level, remote.Level)
	if local.Level > remote.Level {
		merged.CurrentXP = local.CurrentXP
		merged.NextLevelXP = local.NextLevelXP
	}
	merged.TotalCardsReviewed = max(local.TotalCardsReviewed, remote.TotalCardsReviewed)
	if local.LastStudyDate > remote.LastStudyDate {
		merged.LastStudyDate = local.LastStudyDate
	}
	return normalize(merged)
}

func normalize(stats models.UserStats) models.UserStats {
	if stats.Level < 1 {
		stats.Level = 1
	}
	if stats.NextLevelXP < 1 {
		stats.NextLevelXP = 100
	}
	if stats.CurrentXP < 0 {
		stats.CurrentXP = 0
	}
	if stats.DailyTarget < 1 {
		stats.DailyTarget = 1
	}
	if stats.StudyHistory == nil {
		stats.StudyHistory = []models.StudySession{}
	}
	if len(stats.LastStudyDate) > len(dateLayout) && strings.Contains(stats.LastStudyDate, "T") {
		stats.LastStudyDate = stats.LastStudyDate[:len(dateLayout)]
	}
	return stats
}

// sessionFor returns today's session, inserting it at the front if missing
func sessionFor(stats *models.UserStats, now time.Time) *models.StudySession {
	date := now.Format(dateLayout)
	for i := range stats.StudyHistory {
		if stats.StudyHistory[i].Date == date {
			return &stats.StudyHistory[i]
		}
	}
	stats.StudyHistory = append([]models.StudySession{{Date: date}}, stats.StudyHistory...)
	return &stats.StudyHistory[0]
}

func trimHistory(stats *models.UserStats) {
	sort.SliceStable(stats.StudyHistory, func(i, j int) bool {
		return stats.StudyHistory[i].Date > stats.StudyHistory[j].Date
	})
	if len(stats.StudyHistory) > HistoryLimit {
		stats.StudyHistory = stats.StudyHistory[:HistoryLimit]
	}
}
