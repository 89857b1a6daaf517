package tasks

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/pkg/models"
)

var wib = time.FixedZone("WIB", 7*3600)

// 14:00 local on a Tuesday
var now = time.Date(2025, 4, 15, 14, 0, 0, 0, wib)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(database.NewStorage(database.NewMemoryStore(), nil), nil)
	svc.SetClock(func() time.Time { return now })
	return svc
}

func TestPresetThreeHours(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	at, err := PresetTime(Preset3h, now)
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	task, err := svc.Create(ctx, NewTask{CardIDs: []string{"a"}, ScheduledTime: at})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := now.Add(3 * time.Hour)
	if d := task.ScheduledTime.Sub(want); d < -time.Second || d > time.Second {
		t.Fatalf("scheduled %v, want within 1s of %v", task.ScheduledTime, want)
	}
}

func TestPresetTomorrow(t *testing.T) {
	morning, _ := PresetTime(PresetTomorrowMorning, now)
	if want := time.Date(2025, 4, 16, 9, 0, 0, 0, wib); !morning.Equal(want) {
		t.Fatalf("morning: got %v want %v", morning, want)
	}
	evening, _ := PresetTime(PresetTomorrowEvening, now)
	if want := time.Date(2025, 4, 16, 20, 0, 0, 0, wib); !evening.Equal(want) {
		t.Fatalf("evening: got %v want %v", evening, want)
	}

	endOfMonth := time.Date(2025, 4, 30, 23, 0, 0, 0, wib)
	next, _ := PresetTime(PresetTomorrowMorning, endOfMonth)
	if want := time.Date(2025, 5, 1, 9, 0, 0, 0, wib); !next.Equal(want) {
		t.Fatalf("month rollover: got %v want %v", next, want)
	}

	if _, err := PresetTime("custom", now); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestCustomTime(t *testing.T) {
	got, err := CustomTime("2025-04-20", "07:45", now)
	if err != nil {
		t.Fatalf("custom: %v", err)
	}
	if want := time.Date(2025, 4, 20, 7, 45, 0, 0, wib); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, err := CustomTime("2025-04-15", "13:59", now); !errors.Is(err, ErrPastSchedule) {
		t.Fatalf("expected ErrPastSchedule, got %v", err)
	}
	if _, err := CustomTime("15/04/2025", "10:00", now); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCreateDefaultsTitle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	task, err := svc.Create(ctx, NewTask{CardIDs: []string{"a", "b", "a", ""}, ScheduledTime: now})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Title != "Review 2 kata" {
		t.Fatalf("unexpected title %q", task.Title)
	}
	if task.Completed || task.ID == "" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if _, err := svc.Create(ctx, NewTask{ScheduledTime: now}); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
}

func TestCompletedTaskNeverReverts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	task, _ := svc.Create(ctx, NewTask{CardIDs: []string{"a"}, ScheduledTime: now})

	done, err := svc.Complete(ctx, task.ID)
	if err != nil || !done.Completed {
		t.Fatalf("complete: %+v %v", done, err)
	}
	if _, err := svc.Complete(ctx, task.ID); err != nil {
		t.Fatalf("completing twice should succeed: %v", err)
	}

	reopened := done
	reopened.Completed = false
	if _, err := svc.Update(ctx, reopened); !errors.Is(err, ErrTaskCompleted) {
		t.Fatalf("expected ErrTaskCompleted, got %v", err)
	}
	stored, _ := svc.Get(ctx, task.ID)
	if !stored.Completed {
		t.Fatal("task reverted to pending")
	}

	done.Title = "renamed"
	if _, err := svc.Update(ctx, done); err != nil {
		t.Fatalf("editing a completed task should work: %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	task, _ := svc.Create(ctx, NewTask{CardIDs: []string{"a"}, ScheduledTime: now})
	if err := svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestGroupByStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	at := func(day, hour int) time.Time { return time.Date(2025, 4, day, hour, 0, 0, 0, wib) }
	create := func(title string, when time.Time) models.ReviewTask {
		task, err := svc.Create(ctx, NewTask{CardIDs: []string{"a"}, ScheduledTime: when, Title: title})
		if err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return task
	}

	create("late-yesterday", at(14, 23))
	create("two-days-ago", at(13, 8))
	create("today-later", at(15, 18))
	create("today-midnight", at(15, 0))
	create("today-past", at(15, 10))
	create("tomorrow-start", at(16, 0))
	done1 := create("done-old", at(10, 9))
	done2 := create("done-new", at(20, 9))
	svc.Complete(ctx, done1.ID)
	svc.Complete(ctx, done2.ID)

	g := svc.GroupByStatus(ctx)
	assertTitles(t, "overdue", g.Overdue, "two-days-ago", "late-yesterday")
	assertTitles(t, "today", g.Today, "today-midnight", "today-past", "today-later")
	assertTitles(t, "upcoming", g.Upcoming, "tomorrow-start")
	assertTitles(t, "completed", g.Completed, "done-new", "done-old")

	if got := svc.PendingCount(ctx); got != 4 {
		t.Fatalf("pending: got %d want 4", got)
	}
	if due := svc.Due(ctx); len(due) != 4 {
		t.Fatalf("due: got %d want 4", len(due))
	}
}

func TestGroupPartitionProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		var tasks []models.ReviewTask
		pending := 0
		for i := 0; i < 40; i++ {
			task := models.ReviewTask{
				ID:            string(rune('A' + i)),
				ScheduledTime: now.Add(time.Duration(rng.Intn(96*60)-48*60) * time.Minute),
				Completed:     rng.Intn(4) == 0,
			}
			if !task.Completed {
				pending++
			}
			tasks = append(tasks, task)
		}

		g := Group(tasks, now)
		seen := map[string]int{}
		for _, bucket := range [][]models.ReviewTask{g.Overdue, g.Today, g.Upcoming} {
			for _, task := range bucket {
				seen[task.ID]++
				if task.Completed {
					t.Fatalf("completed task %s in a pending bucket", task.ID)
				}
			}
		}
		if len(seen) != pending {
			t.Fatalf("pending buckets hold %d tasks, want %d", len(seen), pending)
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("task %s appears in %d buckets", id, n)
			}
		}
		if c := PendingCount(g, now); c > len(g.Overdue)+len(g.Today) {
			t.Fatalf("pending count %d exceeds overdue+today", c)
		}
	}
}

func assertTitles(t *testing.T, bucket string, tasks []models.ReviewTask, want ...string) {
	t.Helper()
	if len(tasks) != len(want) {
		t.Fatalf("%s: got %d tasks, want %d", bucket, len(tasks), len(want))
	}
	for i, title := range want {
		if tasks[i].Title != title {
			t.Fatalf("%s[%d]: got %q want %q", bucket, i, tasks[i].Title, title)
		}
	}
}
