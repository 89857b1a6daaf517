package terminal

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/example/katasensei/internal/arcade"
)

// hudRows are the rows reserved above the play field
const hudRows = 2

var (
	styleHUD       = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	stylePrompt    = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleTarget    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSpawning  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWrong     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleCannon    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleBullet    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleSpark     = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleFaded     = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleGameOver  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSeparator = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
)

// Canvas is the part of tcell.Screen the renderer draws on
type Canvas interface {
	Size() (int, int)
	Clear()
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Show()
}

// Renderer draws arcade views on a character grid, scaling world pixels to cells
type Renderer struct {
	canvas Canvas
	width  float64
	height float64
}

// NewRenderer creates a renderer for canvas
func NewRenderer(canvas Canvas) *Renderer {
	cfg := arcade.DefaultConfig()
	return &Renderer{canvas: canvas, width: cfg.Width, height: cfg.Height}
}

// CellAt maps a world position to a screen cell
func (r *Renderer) CellAt(p arcade.Vec2) (int, int) {
	cols, rows := r.field()
	x := int(math.Floor(p.X / r.width * float64(cols)))
	y := hudRows + int(math.Floor(p.Y/r.height*float64(rows)))
	return x, y
}

// PixelAt maps a screen cell to the world position at its centre
func (r *Renderer) PixelAt(x, y int) (float64, float64) {
	cols, rows := r.field()
	px := (float64(x) + 0.5) / float64(cols) * r.width
	py := (float64(y-hudRows) + 0.5) / float64(rows) * r.height
	return px, py
}

func (r *Renderer) field() (int, int) {
	cols, rows := r.canvas.Size()
	return max(1, cols), max(1, rows-hudRows)
}

// Draw renders a full frame
func (r *Renderer) Draw(v arcade.View) {
	if v.Width > 0 && v.Height > 0 {
		r.width, r.height = v.Width, v.Height
	}
	r.canvas.Clear()

	r.drawHUD(v)
	r.drawTargets(v.Targets)
	r.drawCannon(v.Cannon)
	for _, p := range v.Projectiles {
		if p.Active {
			r.put(p.Pos, '●', styleBullet)
		}
	}
	for _, p := range v.Particles {
		if p.Life > 0.5 {
			r.put(p.Pos, '*', styleSpark)
		} else if p.Life > 0 {
			r.put(p.Pos, '.', styleFaded)
		}
	}

	switch v.State {
	case arcade.StateGameOver:
		r.drawCentered([]string{
			"GAME OVER",
			fmt.Sprintf("score %d  best streak %d", v.Stats.Score, v.Stats.MaxStreak),
			"r: restart   q: quit",
		}, styleGameOver)
	case arcade.StateMenu:
		r.drawCentered([]string{"katasensei arcade", "r: start   q: quit"}, styleHUD)
	}

	r.canvas.Show()
}

func (r *Renderer) drawHUD(v arcade.View) {
	cols, _ := r.canvas.Size()

	prompt := v.Round.PromptText
	if v.Round.PromptMode == arcade.PromptRomaji {
		prompt = "romaji: " + prompt
	} else if prompt != "" {
		prompt = "meaning: " + prompt
	}
	r.text(0, 0, prompt, stylePrompt)

	lives := strings.Repeat("♥", max(0, v.Stats.Lives))
	status := fmt.Sprintf("score %d  streak %d  level %d  round %d  %s",
		v.Stats.Score, v.Stats.Streak, v.Stats.Level, v.Stats.Round, lives)
	r.text(max(0, cols-runewidth.StringWidth(status)), 0, status, styleHUD)

	for x := 0; x < cols; x++ {
		r.canvas.SetContent(x, 1, '─', nil, styleSeparator)
	}
}

func (r *Renderer) drawTargets(targets []arcade.Target) {
	n := 0
	for _, t := range targets {
		if !t.IsAlive {
			continue
		}
		n++

		style := styleTarget
		switch {
		case t.State == arcade.StateWrong:
			style = styleWrong
		case t.Scale < 1:
			style = styleSpawning
		}

		label := fmt.Sprintf("(%d %s)", n, t.Card.Word)
		x, y := r.CellAt(t.Pos)
		r.text(x-runewidth.StringWidth(label)/2, y, label, style)
	}
}

func (r *Renderer) drawCannon(c arcade.Cannon) {
	r.put(c.Pos, '▲', styleCannon)
	// Barrel tip, pulled back by the recoil
	tip := c.Pos.Add(arcade.FromAngle(c.Angle, 40-c.Recoil))
	r.put(tip, barrelRune(c.Angle), styleCannon)
}

func barrelRune(angle float64) rune {
	deg := math.Mod(angle*180/math.Pi+360, 180)
	switch {
	case deg < 22.5 || deg >= 157.5:
		return '─'
	case deg < 67.5:
		return '╲'
	case deg < 112.5:
		return '│'
	default:
		return '╱'
	}
}

func (r *Renderer) drawCentered(lines []string, style tcell.Style) {
	cols, rows := r.canvas.Size()
	top := rows/2 - len(lines)/2
	for i, line := range lines {
		r.text((cols-runewidth.StringWidth(line))/2, top+i, line, style)
	}
}

func (r *Renderer) put(p arcade.Vec2, ch rune, style tcell.Style) {
	x, y := r.CellAt(p)
	cols, rows := r.canvas.Size()
	if x < 0 || x >= cols || y < hudRows || y >= rows {
		return
	}
	r.canvas.SetContent(x, y, ch, nil, style)
}

// text writes s from (x, y), clipping at the screen edges
func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	cols, rows := r.canvas.Size()
	if y < 0 || y >= rows {
		return
	}
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if x >= 0 && x+w <= cols {
			r.canvas.SetContent(x, y, ch, nil, style)
		}
		x += w
	}
}
