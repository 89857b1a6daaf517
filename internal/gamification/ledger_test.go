package gamification

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2025, 5, d, 19, 30, 0, 0, time.UTC)
}

func newTestLedger(t *testing.T) (*Ledger, database.KV) {
	t.Helper()
	kv := database.NewMemoryStore()
	return NewLedger(database.NewStorage(kv, nil), nil), kv
}

func TestUpdateStreakIdempotentSameDay(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	first, err := l.UpdateStreak(ctx, day(1))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if first.Streak != 1 || first.LastStudyDate != "2025-05-01" {
		t.Fatalf("first study: %+v", first)
	}
	again, _ := l.UpdateStreak(ctx, day(1).Add(2*time.Hour))
	if again.Streak != first.Streak || again.MaxStreak != first.MaxStreak || again.LastStudyDate != first.LastStudyDate {
		t.Fatalf("second call same day changed stats: %+v", again)
	}
}

func TestUpdateStreakConsecutiveAndGap(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	for d := 1; d <= 3; d++ {
		l.UpdateStreak(ctx, day(d))
	}
	stats := l.Stats(ctx)
	if stats.Streak != 3 || stats.MaxStreak != 3 {
		t.Fatalf("after 3 days: streak=%d max=%d", stats.Streak, stats.MaxStreak)
	}

	stats, _ = l.UpdateStreak(ctx, day(6))
	if stats.Streak != 1 || stats.MaxStreak != 3 {
		t.Fatalf("after gap: streak=%d max=%d", stats.Streak, stats.MaxStreak)
	}
}

func TestApplyStreakAcrossMonthBoundary(t *testing.T) {
	stats := InitialStats()
	stats.Streak = 4
	stats.LastStudyDate = "2025-02-28"
	got := ApplyStreak(stats, time.Date(2025, 3, 1, 0, 5, 0, 0, time.UTC))
	if got.Streak != 5 {
		t.Fatalf("expected streak 5, got %d", got.Streak)
	}

	stats.LastStudyDate = "2025-02-28T23:10:00.000Z"
	if got := ApplyStreak(stats, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)); got.Streak != 5 {
		t.Fatalf("legacy timestamp date: expected streak 5, got %d", got.Streak)
	}
}

func TestAddXPLevelsUp(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	up, err := l.AddXP(ctx, 90)
	if err != nil || up.LeveledUp || up.Level != 1 {
		t.Fatalf("90 xp: %+v %v", up, err)
	}
	up, _ = l.AddXP(ctx, 250)
	// 340 xp: 100 -> level 2 (240 left), 120 -> level 3 (120 left), 144 not reached
	if !up.LeveledUp || up.Level != 3 {
		t.Fatalf("expected level 3, got %+v", up)
	}
	stats := l.Stats(ctx)
	if stats.CurrentXP != 120 || stats.NextLevelXP != 144 {
		t.Fatalf("unexpected xp state: %d/%d", stats.CurrentXP, stats.NextLevelXP)
	}

	up, _ = l.AddXP(ctx, -50)
	if up.LeveledUp || l.Stats(ctx).CurrentXP != 120 {
		t.Fatal("negative xp must be ignored")
	}
}

func TestApplyXPPostcondition(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	stats := InitialStats()
	for i := 0; i < 500; i++ {
		var up LevelUp
		stats, up = ApplyXP(stats, rng.Intn(5000))
		if stats.CurrentXP >= stats.NextLevelXP {
			t.Fatalf("step %d: currentXp %d >= nextLevelXp %d", i, stats.CurrentXP, stats.NextLevelXP)
		}
		if up.Level != stats.Level {
			t.Fatalf("step %d: reported level %d, stats level %d", i, up.Level, stats.Level)
		}
	}
}

func TestApplyXPSaturatesOnHugeGrants(t *testing.T) {
	stats := InitialStats()
	stats.CurrentXP = 50
	for i := 0; i < 20; i++ {
		done := make(chan models.UserStats, 1)
		go func(s models.UserStats) {
			s, _ = ApplyXP(s, math.MaxInt-s.CurrentXP)
			s, _ = ApplyXP(s, math.MaxInt)
			done <- s
		}(stats)
		select {
		case stats = <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("step %d: ApplyXP did not return", i)
		}
		if stats.CurrentXP < 0 || stats.CurrentXP >= stats.NextLevelXP {
			t.Fatalf("step %d: currentXp %d, nextLevelXp %d", i, stats.CurrentXP, stats.NextLevelXP)
		}
	}
	if stats.NextLevelXP != math.MaxInt {
		t.Fatalf("threshold should saturate, got %d", stats.NextLevelXP)
	}
}

func TestRecordAnswerAndStudyTime(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	l.RecordAnswer(ctx, true, day(2))
	l.RecordAnswer(ctx, false, day(2))
	l.RecordAnswer(ctx, true, day(3))
	stats, _ := l.RecordStudyTime(ctx, 60000, day(3))
	l.RecordStudyTime(ctx, -5, day(3))

	stats = l.Stats(ctx)
	if len(stats.StudyHistory) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(stats.StudyHistory))
	}
	latest, older := stats.StudyHistory[0], stats.StudyHistory[1]
	if latest.Date != "2025-05-03" || latest.CardsReviewed != 1 || latest.StudyTimeMs != 60000 {
		t.Fatalf("unexpected latest session: %+v", latest)
	}
	if older.CorrectCount != 1 || older.WrongCount != 1 {
		t.Fatalf("unexpected older session: %+v", older)
	}
	if stats.TotalCardsReviewed != 3 || stats.TotalCorrect != 2 || stats.TotalWrong != 1 || stats.TotalStudyTimeMs != 60000 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
}

func TestHistoryCappedAtThirty(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 45; i++ {
		l.RecordAnswer(ctx, true, start.AddDate(0, 0, i))
	}
	stats := l.Stats(ctx)
	if len(stats.StudyHistory) != HistoryLimit {
		t.Fatalf("history length %d", len(stats.StudyHistory))
	}
	if want := start.AddDate(0, 0, 44).Format("2006-01-02"); stats.StudyHistory[0].Date != want {
		t.Fatalf("most recent first: got %s want %s", stats.StudyHistory[0].Date, want)
	}
}

func TestDailyTargetClampAndProgress(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	if n, _ := l.SetDailyTarget(ctx, -3); n != 1 {
		t.Fatalf("expected clamp to 1, got %d", n)
	}
	l.SetDailyTarget(ctx, 4)
	l.RecordAnswer(ctx, true, day(7))
	l.RecordAnswer(ctx, false, day(7))

	p := l.TodayProgress(ctx, day(7))
	if p.Reviewed != 2 || p.Target != 4 || p.Percent != 50 || p.Reached {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if p := l.TodayProgress(ctx, day(8)); p.Reviewed != 0 {
		t.Fatalf("new day should start empty: %+v", p)
	}
}

func TestStatsUpgradeFromLegacyDocument(t *testing.T) {
	ctx := context.Background()
	l, kv := newTestLedger(t)

	legacy := `{"streak":5,"lastStudyDate":"2025-05-01T10:00:00.000Z","maxStreak":9,"level":4,"currentXp":30,"nextLevelXp":172}`
	kv.Save(ctx, database.StatsKey, []byte(legacy))

	stats := l.Stats(ctx)
	if stats.Streak != 5 || stats.MaxStreak != 9 || stats.Level != 4 || stats.NextLevelXP != 172 {
		t.Fatalf("legacy fields lost: %+v", stats)
	}
	if stats.DailyTarget != DefaultDailyTarget {
		t.Fatalf("daily target not defaulted: %d", stats.DailyTarget)
	}
	if stats.StudyHistory == nil || stats.LastStudyDate != "2025-05-01" {
		t.Fatalf("defaults not merged: %+v", stats)
	}

	// Writing stores an envelope at the current version
	l.SetDailyTarget(ctx, 12)
	raw, _, _ := kv.Load(ctx, database.StatsKey)
	if want := fmt.Sprintf(`{"version":%d,`, statsSchema.Current); string(raw[:len(want)]) != want {
		t.Fatalf("expected versioned envelope, got %s", raw)
	}
	if got := l.Stats(ctx); got.DailyTarget != 12 || got.Streak != 5 {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestCorruptStatsFallBack(t *testing.T) {
	ctx := context.Background()
	l, kv := newTestLedger(t)
	kv.Save(ctx, database.StatsKey, []byte(`{"version":`))

	if stats := l.Stats(ctx); stats.Level != 1 || stats.NextLevelXP != 100 {
		t.Fatalf("expected initial stats, got %+v", stats)
	}
}

func TestMergeStatsKeepsHigher(t *testing.T) {
	local := models.UserStats{Streak: 7, MaxStreak: 7, Level: 5, CurrentXP: 40, NextLevelXP: 207, TotalCardsReviewed: 300, DailyTarget: 10}
	remote := models.UserStats{Streak: 2, MaxStreak: 12, Level: 3, CurrentXP: 90, NextLevelXP: 144, TotalCardsReviewed: 500, DailyTarget: 25}

	got := MergeStats(local, remote)
	if got.Streak != 7 || got.MaxStreak != 12 || got.Level != 5 || got.TotalCardsReviewed != 500 {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if got.CurrentXP != 40 || got.NextLevelXP != 207 {
		t.Fatalf("xp should follow the higher level: %d/%d", got.CurrentXP, got.NextLevelXP)
	}

	got = MergeStats(remote, local)
	if got.CurrentXP != 40 {
		t.Fatalf("xp should follow the higher level regardless of side: %d", got.CurrentXP)
	}
}

func TestXPForAnswer(t *testing.T) {
	if XPForAnswer(true) <= XPForAnswer(false) || XPForAnswer(false) <= 0 {
		t.Fatal("correct answers must earn more xp than wrong ones")
	}
}
