package arcade

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrEmptyCardPool = errors.New("card pool is empty")

const (
	maxTargets   = 6
	spawnPadding = 60
	targetRadius = 40
)

// PromptMode selects which side of the correct card is shown as the prompt
type PromptMode string

const (
	PromptMeaning PromptMode = "meaning"
	PromptRomaji  PromptMode = "romaji"
)

// RoundData describes one round: the card to find and the decoys
type RoundData struct {
	Level       int        `json:"level"`
	CorrectCard Card       `json:"correctCard"`
	Distractors []Card     `json:"distractors"`
	PromptMode  PromptMode `json:"promptMode"`
	PromptText  string     `json:"promptText"`
	TargetCount int        `json:"targetCount"`
}

// RoundManager picks cards for rounds, favouring cards with low mastery
type RoundManager struct {
	rng *rand.Rand
}

// NewRoundManager creates a round manager. A nil rng is seeded from the clock.
func NewRoundManager(rng *rand.Rand) *RoundManager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RoundManager{rng: rng}
}

// TotalTargets is the number of targets in a round at level
func TotalTargets(level int) int {
	if level < 1 {
		level = 1
	}
	return min(maxTargets, 3+level/3)
}

// GenerateRound picks the correct card and distractors for level from pool.
// Cards are ordered by SRS level with a random tie-break and the first one
// becomes the answer. A pool smaller than the target count yields fewer
// distractors; TargetCount always equals 1 + len(Distractors).
func (m *RoundManager) GenerateRound(level int, pool []Card) (RoundData, error) {
	cards := lo.UniqBy(pool, func(c Card) string { return c.ID })
	if len(cards) == 0 {
		return RoundData{}, ErrEmptyCardPool
	}
	if level < 1 {
		level = 1
	}

	// One key per card keeps the ordering a strict weak order
	keys := make(map[string]float64, len(cards))
	for _, c := range cards {
		keys[c.ID] = m.rng.Float64()
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].SRSLevel != cards[j].SRSLevel {
			return cards[i].SRSLevel < cards[j].SRSLevel
		}
		return keys[cards[i].ID] < keys[cards[j].ID]
	})

	correct := cards[0]
	others := append([]Card(nil), cards[1:]...)
	m.rng.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })

	distractors := others[:min(TotalTargets(level)-1, len(others))]

	round := RoundData{
		Level:       level,
		CorrectCard: correct,
		Distractors: distractors,
		PromptMode:  PromptRomaji,
		PromptText:  correct.Romaji,
		TargetCount: 1 + len(distractors),
	}
	if m.rng.Float64() > 0.5 {
		round.PromptMode = PromptMeaning
		round.PromptText = correct.Meaning
	}
	return round, nil
}

// CreateTargets places the round's cards in the top 40% of a width x height
// play area. Drift speed grows with the round's level. Exactly one target is
// correct.
func (m *RoundManager) CreateTargets(round RoundData, width, height float64) []Target {
	type entry struct {
		card    Card
		correct bool
	}
	entries := make([]entry, 0, 1+len(round.Distractors))
	entries = append(entries, entry{round.CorrectCard, true})
	for _, d := range round.Distractors {
		entries = append(entries, entry{d, false})
	}
	m.rng.Shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })

	spawnW := max(0, width-spawnPadding*2)
	baseSpeed := 1 + float64(max(1, round.Level))*0.2

	targets := make([]Target, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, Target{
			ID:   "t-" + uuid.NewString(),
			Card: e.card,
			Pos: Vec2{
				X: spawnPadding + m.rng.Float64()*spawnW,
				Y: m.rng.Float64()*(height*0.4) + 50,
			},
			Vel: Vec2{
				X: (m.rng.Float64() - 0.5) * baseSpeed,
				Y: (m.rng.Float64()*0.5 + 0.2) * baseSpeed * 0.5,
			},
			Radius:    targetRadius,
			IsCorrect: e.correct,
			IsAlive:   true,
			State:     StateNormal,
		})
	}
	return targets
}
