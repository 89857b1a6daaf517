package arcade

import (
	"math"

	"github.com/example/katasensei/internal/spaced_repetition"
	"github.com/example/katasensei/pkg/models"
)

// Vec2 is a point or velocity in play-area pixels
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }
func FromAngle(a, length float64) Vec2 { return Vec2{math.Cos(a) * length, math.Sin(a) * length} }

// Card is the arcade's view of a flashcard
type Card struct {
	ID       string `json:"id"`
	Word     string `json:"word"`
	Romaji   string `json:"romaji"`
	Meaning  string `json:"meaning"`
	SRSLevel int    `json:"srsLevel"`
}

// CardFromModel derives an arcade card; SRSLevel is the card's mastery bucket
func CardFromModel(c models.Card) Card {
	return Card{
		ID:       c.ID,
		Word:     c.Japanese,
		Romaji:   c.Romaji,
		Meaning:  c.Indonesia,
		SRSLevel: spaced_repetition.MasteryLevel(c.ReviewMeta),
	}
}

// TargetState is the visual state of a target
type TargetState int

const (
	StateNormal TargetState = iota
	StateWrong
)

func (s TargetState) String() string {
	if s == StateWrong {
		return "wrong"
	}
	return "normal"
}

// Target is a bubble carrying one card
type Target struct {
	ID        string
	Card      Card
	Pos       Vec2
	Vel       Vec2 // pixels per step
	Radius    float64
	IsCorrect bool
	IsAlive   bool
	Scale     float64 // spawn-in progress, 0..1
	State     TargetState
}

// EntityID identifies a projectile or particle within an engine
type EntityID uint64

// Projectile flies from the cannon toward the target it was fired at
type Projectile struct {
	ID       EntityID
	Pos      Vec2
	Vel      Vec2
	Radius   float64
	Active   bool
	TargetID string
}

// Particle is an explosion fragment
type Particle struct {
	ID      EntityID
	Pos     Vec2
	Vel     Vec2
	Life    float64 // fades from MaxLife to 0
	MaxLife float64
	Size    float64
}

// Cannon sits at the bottom centre of the play area
type Cannon struct {
	Pos         Vec2
	Angle       float64
	TargetAngle float64
	Recoil      float64
}

// GameState is the engine's top-level state
type GameState int

const (
	StateMenu GameState = iota
	StatePlaying
	StateGameOver
)

func (s GameState) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return "MENU"
	}
}

// GameStats is the running score of one game
type GameStats struct {
	Score        int `json:"score"`
	Streak       int `json:"streak"`
	MaxStreak    int `json:"maxStreak"`
	CorrectCount int `json:"correctCount"`
	WrongCount   int `json:"wrongCount"`
	Lives        int `json:"lives"`
	Level        int `json:"level"`
	Round        int `json:"round"`
}

// arena stores entities densely; dead entries are only removed by sweep
type arena[T any] struct {
	items []T
	next  EntityID
}

func (a *arena[T]) add(build func(id EntityID) T) {
	a.next++
	a.items = append(a.items, build(a.next))
}

func (a *arena[T]) sweep(alive func(*T) bool) {
	kept := a.items[:0]
	for i := range a.items {
		if alive(&a.items[i]) {
			kept = append(kept, a.items[i])
		}
	}
	var zero T
	for i := len(kept); i < len(a.items); i++ {
		a.items[i] = zero
	}
	a.items = kept
}

func (a *arena[T]) reset() {
	a.items = a.items[:0]
}
