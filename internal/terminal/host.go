package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/arcade"
)

// Host runs the arcade engine inside a terminal. It owns the engine: every
// engine call happens on the goroutine running Run.
type Host struct {
	screen   tcell.Screen
	renderer *Renderer
	frames   *arcade.ManualFrames
	engine   *arcade.Engine
	fps      int
	logger   logrus.FieldLogger

	mouseDown bool
}

// NewHost wires an engine to screen. The screen must already be initialised.
func NewHost(screen tcell.Screen, cfg arcade.Config, fps int, logger logrus.FieldLogger) (*Host, error) {
	renderer := NewRenderer(screen)
	frames := arcade.NewManualFrames()
	engine, err := arcade.NewEngine(cfg, renderer, frames)
	if err != nil {
		return nil, err
	}
	return &Host{
		screen:   screen,
		renderer: renderer,
		frames:   frames,
		engine:   engine,
		fps:      max(1, fps),
		logger:   logger,
	}, nil
}

// Engine exposes the engine so callers can subscribe to its events
func (h *Host) Engine() *arcade.Engine {
	return h.engine
}

// Run plays a game with pool until the user quits or ctx is cancelled
func (h *Host) Run(ctx context.Context, pool []arcade.Card) error {
	h.screen.EnableMouse()
	h.screen.HideCursor()

	if err := h.engine.StartGame(pool); err != nil {
		return err
	}
	defer h.engine.Stop()

	// PollEvent blocks, so it gets its own goroutine; it returns nil after Fini
	eventChan := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go pollEvents(h.screen, eventChan, done)

	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-eventChan:
			if !ok {
				return nil
			}
			if quit := h.handleEvent(ev); quit {
				h.logger.WithField("score", h.engine.Stats().Score).Info("Arcade closed")
				return nil
			}
		case now := <-ticker.C:
			h.frames.Fire(now)
		}
	}
}

// pollEvents forwards screen events to out until the screen is finalised or
// done is closed
func pollEvents(screen interface{ PollEvent() tcell.Event }, out chan<- tcell.Event, done <-chan struct{}) {
	defer close(out)
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-done:
			return
		}
	}
}

// handleEvent applies one terminal event and reports whether to quit
func (h *Host) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return h.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventMouse:
		pressed := ev.Buttons()&tcell.Button1 != 0
		if pressed && !h.mouseDown {
			x, y := ev.Position()
			h.click(x, y)
		}
		h.mouseDown = pressed
	case *tcell.EventResize:
		h.screen.Sync()
	}
	return false
}

func (h *Host) handleKey(key tcell.Key, ch rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch {
	case ch == 'q':
		return true
	case ch >= '1' && ch <= '9':
		h.engine.PickIndex(int(ch - '1'))
	case ch == 'r':
		if h.engine.State() != arcade.StatePlaying {
			if err := h.engine.Restart(); err != nil {
				h.logger.WithError(err).Warn("Failed to restart arcade")
			}
		}
	case ch == 'p':
		if h.engine.Running() {
			h.engine.Stop()
		} else {
			h.engine.Start()
		}
	}
	return false
}

// click resolves a mouse press on cell (x, y)
func (h *Host) click(x, y int) {
	if y < hudRows {
		return
	}
	px, py := h.renderer.PixelAt(x, y)
	h.engine.HandleInput(px, py)
}
