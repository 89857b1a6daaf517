package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/internal/decks"
	"github.com/example/katasensei/internal/gamification"
	"github.com/example/katasensei/internal/tasks"
	"github.com/example/katasensei/pkg/models"
)

var testNow = time.Date(2025, 4, 15, 14, 0, 0, 0, time.UTC)

type apiHarness struct {
	router *gin.Engine
	decks  *decks.Service
	tasks  *tasks.Service
	ledger *gamification.Ledger
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return testNow }
	storage := database.NewStorage(database.NewMemoryStore(), nil)
	h := &apiHarness{
		decks:  decks.NewService(storage, nil, decks.WithClock(clock)),
		tasks:  tasks.NewService(storage, nil),
		ledger: gamification.NewLedger(storage, nil),
	}
	h.tasks.SetClock(clock)
	h.router = NewRouter(Deps{Decks: h.decks, Tasks: h.tasks, Ledger: h.ledger, Clock: clock})
	return h
}

func (h *apiHarness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestDeckAndCardFlow(t *testing.T) {
	h := newAPI(t)

	w := h.do(t, http.MethodPost, "/api/decks", map[string]interface{}{"name": "Makanan", "tags": []string{"n5"}})
	expectStatus(t, w, http.StatusCreated)
	deck := decode[models.Deck](t, w)

	w = h.do(t, http.MethodPost, "/api/decks/"+deck.ID+"/cards", []map[string]string{
		{"id": "c1", "japanese": "猫", "indonesia": "kucing"},
		{"id": "c2", "japanese": "犬", "indonesia": "anjing"},
	})
	expectStatus(t, w, http.StatusCreated)
	if added := decode[map[string]int](t, w)["added"]; added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	w = h.do(t, http.MethodGet, "/api/due/count", nil)
	expectStatus(t, w, http.StatusOK)
	if n := decode[map[string]int](t, w)["count"]; n != 2 {
		t.Fatalf("new cards should be due, count=%d", n)
	}

	w = h.do(t, http.MethodPost, "/api/cards/c1/grade", map[string]bool{"correct": true})
	expectStatus(t, w, http.StatusOK)
	graded := decode[struct {
		Card models.Card `json:"card"`
	}](t, w)
	if graded.Card.ReviewMeta.Interval != 1 || !graded.Card.ReviewMeta.NextReview.Equal(testNow.Add(24*time.Hour)) {
		t.Fatalf("unexpected review state %+v", graded.Card.ReviewMeta)
	}

	w = h.do(t, http.MethodGet, "/api/due?limit=5", nil)
	expectStatus(t, w, http.StatusOK)
	if due := decode[[]models.Card](t, w); len(due) != 1 || due[0].ID != "c2" {
		t.Fatalf("only c2 should be due, got %+v", due)
	}

	stats := decode[models.UserStats](t, h.do(t, http.MethodGet, "/api/stats", nil))
	if stats.TotalCardsReviewed != 1 || stats.CurrentXP != 10 {
		t.Fatalf("grading should credit the ledger, got %+v", stats)
	}

	expectStatus(t, h.do(t, http.MethodDelete, "/api/decks/"+deck.ID, nil), http.StatusNoContent)
	expectStatus(t, h.do(t, http.MethodGet, "/api/cards/c1", nil), http.StatusNotFound)
}

func TestErrorStatuses(t *testing.T) {
	h := newAPI(t)

	expectStatus(t, h.do(t, http.MethodGet, "/api/decks/nope", nil), http.StatusNotFound)
	expectStatus(t, h.do(t, http.MethodPost, "/api/decks", map[string]string{"name": "  "}), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodPost, "/api/decks", "{not json"), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodPost, "/api/cards/zzz/grade", map[string]int{"quality": 9}), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodPost, "/api/cards/zzz/grade", map[string]int{"quality": 4}), http.StatusNotFound)
	expectStatus(t, h.do(t, http.MethodPost, "/api/cards/zzz/grade", map[string]int{}), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodGet, "/api/due?limit=x", nil), http.StatusBadRequest)
}

func TestTaskFlow(t *testing.T) {
	h := newAPI(t)

	w := h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"cardIds": []string{"c1", "c2"}, "preset": "3h"})
	expectStatus(t, w, http.StatusCreated)
	task := decode[models.ReviewTask](t, w)
	if task.Title != "Review 2 kata" || !task.ScheduledTime.Equal(testNow.Add(3*time.Hour)) {
		t.Fatalf("unexpected task %+v", task)
	}

	expectStatus(t, h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"cardIds": []string{"c1"}, "preset": "never"}), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"cardIds": []string{"c1"}, "date": "2025-04-14", "time": "09:00"}), http.StatusBadRequest)

	expectStatus(t, h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"cardIds": []string{"c3"}, "scheduledTime": testNow.Add(-24 * time.Hour)}), http.StatusBadRequest)
	w = h.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"cardIds": []string{"c4"}, "scheduledTime": testNow.Add(48 * time.Hour)})
	expectStatus(t, w, http.StatusCreated)
	if _, err := h.tasks.Create(context.Background(), tasks.NewTask{CardIDs: []string{"c3"}, ScheduledTime: testNow.Add(-24 * time.Hour)}); err != nil {
		t.Fatalf("create overdue task: %v", err)
	}

	groups := decode[tasks.Groups](t, h.do(t, http.MethodGet, "/api/tasks/grouped", nil))
	if len(groups.Overdue) != 1 || len(groups.Today) != 1 || len(groups.Upcoming) != 1 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if n := decode[map[string]int](t, h.do(t, http.MethodGet, "/api/tasks/pending", nil))["count"]; n != 1 {
		t.Fatalf("expected one pending task, got %d", n)
	}

	expectStatus(t, h.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/complete", nil), http.StatusOK)
	task.Completed = false
	expectStatus(t, h.do(t, http.MethodPut, "/api/tasks/"+task.ID, task), http.StatusConflict)
	expectStatus(t, h.do(t, http.MethodDelete, "/api/tasks/"+task.ID, nil), http.StatusNoContent)
	expectStatus(t, h.do(t, http.MethodGet, "/api/tasks/"+task.ID, nil), http.StatusNotFound)

	if presets := decode[[]tasks.PresetOption](t, h.do(t, http.MethodGet, "/api/tasks/presets", nil)); len(presets) != 4 {
		t.Fatalf("expected 4 presets, got %d", len(presets))
	}
}

func TestStatsEndpoints(t *testing.T) {
	h := newAPI(t)

	expectStatus(t, h.do(t, http.MethodPost, "/api/stats/answer", map[string]bool{"correct": false}), http.StatusOK)
	expectStatus(t, h.do(t, http.MethodPost, "/api/stats/answer", map[string]string{}), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodPost, "/api/stats/study-time", map[string]int{"ms": 60000}), http.StatusOK)

	expectStatus(t, h.do(t, http.MethodPost, "/api/stats/xp", map[string]int{"amount": -5}), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodPost, "/api/stats/xp", map[string]int{"amount": math.MaxInt}), http.StatusBadRequest)
	w := h.do(t, http.MethodPost, "/api/stats/xp", map[string]int{"amount": 120})
	expectStatus(t, w, http.StatusOK)
	up := decode[struct {
		LevelUp gamification.LevelUp `json:"levelUp"`
	}](t, w)
	if !up.LevelUp.LeveledUp || up.LevelUp.Level != 2 {
		t.Fatalf("expected level 2, got %+v", up.LevelUp)
	}

	stats := decode[models.UserStats](t, h.do(t, http.MethodPost, "/api/stats/streak", nil))
	if stats.Streak != 1 || stats.LastStudyDate != "2025-04-15" {
		t.Fatalf("unexpected streak %+v", stats)
	}

	w = h.do(t, http.MethodPut, "/api/stats/daily-target", map[string]int{"target": 0})
	if n := decode[map[string]int](t, w)["dailyTarget"]; n != 1 {
		t.Fatalf("daily target should clamp to 1, got %d", n)
	}

	progress := decode[gamification.Progress](t, h.do(t, http.MethodGet, "/api/stats/today", nil))
	if progress.Reviewed != 1 || progress.Target != 1 || !progress.Reached {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	h := newAPI(t)
	w := h.do(t, http.MethodPost, "/api/decks", map[string]string{"name": "Minuman"})
	deck := decode[models.Deck](t, w)
	h.do(t, http.MethodPost, "/api/decks/"+deck.ID+"/cards", []map[string]string{{"id": "d1", "japanese": "水", "indonesia": "air"}})

	w = h.do(t, http.MethodGet, "/api/backup", nil)
	expectStatus(t, w, http.StatusOK)
	backup := w.Body.String()

	expectStatus(t, h.do(t, http.MethodPost, "/api/backup", `{"decks": "nope"}`), http.StatusBadRequest)
	expectStatus(t, h.do(t, http.MethodDelete, "/api/decks/"+deck.ID, nil), http.StatusNoContent)

	expectStatus(t, h.do(t, http.MethodPost, "/api/backup", backup), http.StatusOK)
	expectStatus(t, h.do(t, http.MethodGet, "/api/cards/d1", nil), http.StatusOK)

	w = h.do(t, http.MethodGet, "/api/decks/"+deck.ID+"/export", nil)
	expectStatus(t, w, http.StatusOK)
	export := w.Body.String()
	expectStatus(t, h.do(t, http.MethodDelete, "/api/decks/"+deck.ID, nil), http.StatusNoContent)
	w = h.do(t, http.MethodPost, "/api/decks/import", export)
	expectStatus(t, w, http.StatusOK)
	if added := decode[map[string]interface{}](t, w)["added"]; added != float64(1) {
		t.Fatalf("expected one card restored, got %v", added)
	}
}
