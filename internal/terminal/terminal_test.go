package terminal

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/example/katasensei/internal/arcade"
)

type fakeCanvas struct {
	cols, rows int
	cells      map[[2]int]rune
	shows      int
}

func newFakeCanvas(cols, rows int) *fakeCanvas {
	return &fakeCanvas{cols: cols, rows: rows, cells: map[[2]int]rune{}}
}

func (c *fakeCanvas) Size() (int, int) { return c.cols, c.rows }
func (c *fakeCanvas) Clear()           { c.cells = map[[2]int]rune{} }
func (c *fakeCanvas) Show()            { c.shows++ }
func (c *fakeCanvas) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	c.cells[[2]int{x, y}] = mainc
}

// row joins the set cells of row y, skipping unset ones
func (c *fakeCanvas) row(y int) string {
	var b strings.Builder
	for x := 0; x < c.cols; x++ {
		if r, ok := c.cells[[2]int{x, y}]; ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *fakeCanvas) screen() string {
	lines := make([]string, c.rows)
	for y := range lines {
		lines[y] = c.row(y)
	}
	return strings.Join(lines, "\n")
}

func TestCellPixelRoundTrip(t *testing.T) {
	r := NewRenderer(newFakeCanvas(80, 24))
	for _, p := range []arcade.Vec2{{X: 0, Y: 0}, {X: 400, Y: 300}, {X: 799, Y: 599}, {X: 123, Y: 456}} {
		x, y := r.CellAt(p)
		px, py := r.PixelAt(x, y)
		// one cell is 10px wide and 600/22 px tall
		if math.Abs(px-p.X) > 10 || math.Abs(py-p.Y) > 600.0/22 {
			t.Fatalf("%v -> (%d,%d) -> (%f,%f)", p, x, y, px, py)
		}
		if y < hudRows {
			t.Fatalf("%v mapped into the HUD row %d", p, y)
		}
	}
}

func TestDrawHUDAndTargets(t *testing.T) {
	canvas := newFakeCanvas(80, 24)
	r := NewRenderer(canvas)

	r.Draw(arcade.View{
		State:  arcade.StatePlaying,
		Width:  800,
		Height: 600,
		Stats:  arcade.GameStats{Score: 300, Lives: 2, Level: 1, Round: 2},
		Round:  arcade.RoundData{PromptMode: arcade.PromptMeaning, PromptText: "kucing"},
		Cannon: arcade.Cannon{Pos: arcade.Vec2{X: 400, Y: 560}, Angle: -math.Pi / 2},
		Targets: []arcade.Target{
			{ID: "a", Card: arcade.Card{Word: "いぬ"}, Pos: arcade.Vec2{X: 200, Y: 100}, IsAlive: false, Scale: 1},
			{ID: "b", Card: arcade.Card{Word: "ねこ"}, Pos: arcade.Vec2{X: 400, Y: 200}, IsAlive: true, Scale: 1},
		},
	})

	hud := canvas.row(0)
	if !strings.Contains(hud, "meaning: kucing") {
		t.Fatalf("prompt missing from HUD %q", hud)
	}
	if !strings.Contains(hud, "score 300") || !strings.Contains(hud, "♥♥") || strings.Contains(hud, "♥♥♥") {
		t.Fatalf("unexpected status %q", hud)
	}

	_, y := r.CellAt(arcade.Vec2{X: 400, Y: 200})
	if row := canvas.row(y); !strings.Contains(row, "(1 ねこ)") {
		t.Fatalf("target label missing, row %d is %q", y, row)
	}
	if strings.Contains(canvas.screen(), "いぬ") {
		t.Fatal("dead targets must not be drawn")
	}
	if canvas.shows != 1 {
		t.Fatalf("expected one Show, got %d", canvas.shows)
	}
}

func TestDrawGameOver(t *testing.T) {
	canvas := newFakeCanvas(80, 24)
	NewRenderer(canvas).Draw(arcade.View{State: arcade.StateGameOver, Width: 800, Height: 600})
	if !strings.Contains(canvas.screen(), "GAME OVER") {
		t.Fatal("game over banner missing")
	}
}

func TestTextClipsAtEdge(t *testing.T) {
	canvas := newFakeCanvas(10, 5)
	r := NewRenderer(canvas)
	r.text(6, 2, "abcdef", styleHUD)
	if got := canvas.row(2); got != "abcd" {
		t.Fatalf("expected clipped text, got %q", got)
	}
	r.text(0, 9, "x", styleHUD)
	if len(canvas.cells) != 4 {
		t.Fatal("text below the screen should be dropped")
	}
}

func newTestHost(t *testing.T, pool []arcade.Card) *Host {
	t.Helper()
	canvas := newFakeCanvas(80, 24)
	renderer := NewRenderer(canvas)
	frames := arcade.NewManualFrames()
	cfg := arcade.DefaultConfig()
	cfg.Rand = rand.New(rand.NewSource(7))
	engine, err := arcade.NewEngine(cfg, renderer, frames)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := engine.StartGame(pool); err != nil {
		t.Fatalf("start game: %v", err)
	}
	logger, _ := test.NewNullLogger()
	return &Host{renderer: renderer, frames: frames, engine: engine, fps: 60, logger: logger}
}

func testPool(n int) []arcade.Card {
	words := []string{"ねこ", "いぬ", "みず", "ごはん"}
	pool := make([]arcade.Card, n)
	for i := range pool {
		pool[i] = arcade.Card{ID: words[i], Word: words[i], Romaji: words[i], Meaning: words[i]}
	}
	return pool
}

func TestHostQuitKeys(t *testing.T) {
	h := newTestHost(t, testPool(3))
	if !h.handleKey(tcell.KeyEscape, 0) || !h.handleKey(tcell.KeyCtrlC, 0) || !h.handleKey(tcell.KeyRune, 'q') {
		t.Fatal("escape, ctrl-c and q should quit")
	}
	if h.handleKey(tcell.KeyRune, 'x') {
		t.Fatal("other keys should not quit")
	}
}

func TestHostNumberKeysPickTargets(t *testing.T) {
	h := newTestHost(t, testPool(3))

	wrong, right := -1, -1
	for i, target := range h.engine.Targets() {
		if target.IsCorrect {
			right = i
		} else if wrong < 0 {
			wrong = i
		}
	}
	if wrong < 0 || right < 0 {
		t.Fatal("round should have a correct and a wrong target")
	}

	h.handleKey(tcell.KeyRune, rune('1'+wrong))
	if lives := h.engine.Stats().Lives; lives != 2 {
		t.Fatalf("wrong pick should cost a life, lives=%d", lives)
	}

	h.handleKey(tcell.KeyRune, rune('1'+right))
	if n := len(h.engine.Projectiles()); n != 1 {
		t.Fatalf("correct pick should fire, got %d projectiles", n)
	}
}

func TestHostClickAndPause(t *testing.T) {
	h := newTestHost(t, testPool(1))
	target := h.engine.Targets()[0]

	x, y := h.renderer.CellAt(target.Pos)
	h.click(x, 0) // HUD clicks are ignored
	if len(h.engine.Projectiles()) != 0 {
		t.Fatal("HUD click should not shoot")
	}
	h.click(x, y)
	if len(h.engine.Projectiles()) != 1 {
		t.Fatal("click on the target should shoot")
	}

	h.handleKey(tcell.KeyRune, 'p')
	if h.engine.Running() {
		t.Fatal("p should pause")
	}
	h.handleKey(tcell.KeyRune, 'p')
	if !h.engine.Running() {
		t.Fatal("p should resume")
	}
}

func TestBarrelRune(t *testing.T) {
	cases := map[float64]rune{
		-math.Pi / 2:     '│',
		0:                '─',
		math.Pi:          '─',
		-3 * math.Pi / 4: '╲',
		-math.Pi / 4:     '╱',
	}
	for angle, want := range cases {
		if got := barrelRune(angle); got != want {
			t.Fatalf("angle %f: expected %q, got %q", angle, want, got)
		}
	}
}

type endlessKeys struct{}

func (endlessKeys) PollEvent() tcell.Event {
	return tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
}

func TestPollEventsStopsWhenDone(t *testing.T) {
	out := make(chan tcell.Event, 2)
	done := make(chan struct{})
	go pollEvents(endlessKeys{}, out, done)

	// let the buffer fill so the poller is blocked on send
	time.Sleep(20 * time.Millisecond)
	close(done)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("poller still running after done was closed")
		}
	}
}
