package arcade

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/example/katasensei/pkg/models"
)

func makePool(n int) []Card {
	pool := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, Card{
			ID:       fmt.Sprintf("c%d", i),
			Word:     fmt.Sprintf("word-%d", i),
			Romaji:   fmt.Sprintf("romaji-%d", i),
			Meaning:  fmt.Sprintf("meaning-%d", i),
			SRSLevel: i % 4,
		})
	}
	return pool
}

func TestTotalTargets(t *testing.T) {
	cases := map[int]int{0: 3, 1: 3, 2: 3, 3: 4, 5: 4, 6: 5, 9: 6, 12: 6, 30: 6}
	for level, want := range cases {
		if got := TotalTargets(level); got != want {
			t.Fatalf("level %d: got %d want %d", level, got, want)
		}
	}
}

func TestGenerateRoundDistractorCount(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(1)))
	pool := makePool(20)
	for level := 1; level <= 20; level++ {
		round, err := rm.GenerateRound(level, pool)
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
		if len(round.Distractors) != TotalTargets(level)-1 {
			t.Fatalf("level %d: %d distractors, want %d", level, len(round.Distractors), TotalTargets(level)-1)
		}
		if round.TargetCount != TotalTargets(level) {
			t.Fatalf("level %d: target count %d", level, round.TargetCount)
		}
		for _, d := range round.Distractors {
			if d.ID == round.CorrectCard.ID {
				t.Fatalf("level %d: correct card used as distractor", level)
			}
		}
	}
}

func TestGenerateRoundPrefersLowMastery(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(5)))
	pool := []Card{
		{ID: "known", SRSLevel: 5},
		{ID: "fresh", SRSLevel: 0},
		{ID: "learning", SRSLevel: 2},
	}
	for i := 0; i < 50; i++ {
		round, _ := rm.GenerateRound(1, pool)
		if round.CorrectCard.ID != "fresh" {
			t.Fatalf("expected the lowest mastery card, got %s", round.CorrectCard.ID)
		}
	}
}

func TestGenerateRoundTieBreakIsRandom(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(11)))
	pool := []Card{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		round, _ := rm.GenerateRound(1, pool)
		seen[round.CorrectCard.ID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("equal mastery cards should all get picked, saw %v", seen)
	}
}

func TestGenerateRoundSmallPool(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(3)))
	round, err := rm.GenerateRound(9, []Card{{ID: "only", Romaji: "hitori", Meaning: "sendiri"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(round.Distractors) != 0 || round.TargetCount != 1 {
		t.Fatalf("unexpected round: %+v", round)
	}
	if round.PromptText != "hitori" && round.PromptText != "sendiri" {
		t.Fatalf("prompt %q does not come from the correct card", round.PromptText)
	}

	if _, err := rm.GenerateRound(1, nil); !errors.Is(err, ErrEmptyCardPool) {
		t.Fatalf("expected ErrEmptyCardPool, got %v", err)
	}
}

func TestGenerateRoundPromptMatchesMode(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(8)))
	modes := map[PromptMode]int{}
	for i := 0; i < 200; i++ {
		round, _ := rm.GenerateRound(1, makePool(6))
		modes[round.PromptMode]++
		switch round.PromptMode {
		case PromptMeaning:
			if round.PromptText != round.CorrectCard.Meaning {
				t.Fatalf("meaning prompt %q", round.PromptText)
			}
		case PromptRomaji:
			if round.PromptText != round.CorrectCard.Romaji {
				t.Fatalf("romaji prompt %q", round.PromptText)
			}
		}
	}
	if modes[PromptMeaning] == 0 || modes[PromptRomaji] == 0 {
		t.Fatalf("both prompt modes should occur: %v", modes)
	}
}

func TestCreateTargetsExactlyOneCorrect(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(21)))
	pool := makePool(12)
	for level := 1; level <= 15; level++ {
		round, _ := rm.GenerateRound(level, pool)
		targets := rm.CreateTargets(round, 800, 600)
		if len(targets) != round.TargetCount {
			t.Fatalf("level %d: %d targets, want %d", level, len(targets), round.TargetCount)
		}

		correct := 0
		ids := map[string]bool{}
		baseSpeed := 1 + float64(level)*0.2
		for _, tg := range targets {
			if tg.IsCorrect {
				correct++
				if tg.Card.ID != round.CorrectCard.ID {
					t.Fatalf("correct flag on the wrong card")
				}
			}
			if ids[tg.ID] {
				t.Fatalf("duplicate target id %s", tg.ID)
			}
			ids[tg.ID] = true

			if tg.Pos.X < spawnPadding || tg.Pos.X > 800-spawnPadding {
				t.Fatalf("x %f outside spawn band", tg.Pos.X)
			}
			if tg.Pos.Y < 50 || tg.Pos.Y > 600*0.4+50 {
				t.Fatalf("y %f outside top area", tg.Pos.Y)
			}
			if tg.Scale != 0 || !tg.IsAlive || tg.Radius != targetRadius {
				t.Fatalf("unexpected spawn state: %+v", tg)
			}
			if tg.Vel.X < -baseSpeed/2 || tg.Vel.X > baseSpeed/2 || tg.Vel.Y <= 0 {
				t.Fatalf("velocity %+v out of range for level %d", tg.Vel, level)
			}
		}
		if correct != 1 {
			t.Fatalf("level %d: %d correct targets", level, correct)
		}
	}
}

func TestCreateTargetsDuplicateIDsInPool(t *testing.T) {
	rm := NewRoundManager(rand.New(rand.NewSource(2)))
	pool := []Card{{ID: "x"}, {ID: "x"}, {ID: "y"}, {ID: "z"}}
	round, _ := rm.GenerateRound(1, pool)
	correct := 0
	for _, tg := range rm.CreateTargets(round, 800, 600) {
		if tg.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		t.Fatalf("expected one correct target, got %d", correct)
	}
}

func TestCardFromModel(t *testing.T) {
	c := CardFromModel(models.Card{
		ID:         "k1",
		Japanese:   "こんにちは",
		Romaji:     "konnichiwa",
		Indonesia:  "Halo",
		ReviewMeta: models.ReviewMeta{Repetitions: 2, Interval: 6},
	})
	if c.Word != "こんにちは" || c.Meaning != "Halo" || c.SRSLevel != 2 {
		t.Fatalf("unexpected card: %+v", c)
	}
}
