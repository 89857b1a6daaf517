package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/arcade"
	"github.com/example/katasensei/internal/audio"
	"github.com/example/katasensei/internal/terminal"
	"github.com/example/katasensei/pkg/models"
)

var arcadeCmd = &cobra.Command{
	Use:   "arcade",
	Short: "Shoot the matching word in a terminal cannon game",
	Long: `Every round shows a meaning or romaji prompt and a few floating words.
Click the matching word or press its number to fire. Hits and wrong picks
are graded into the card schedule. Press q or Esc to quit, p to pause and
r to play again after game over.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deckID, _ := cmd.Flags().GetString("deck")
		noSound, _ := cmd.Flags().GetBool("no-sound")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		pool := lo.Map(a.decks.ListCards(ctx, deckID), func(c models.Card, _ int) arcade.Card {
			return arcade.CardFromModel(c)
		})
		if len(pool) == 0 {
			return fmt.Errorf("no cards to play with")
		}

		started := time.Now()
		stats, err := playArcade(ctx, a, pool, !noSound && a.cfg.Arcade.Sound)
		if err != nil {
			return err
		}
		if _, err := a.ledger.RecordStudyTime(ctx, time.Since(started).Milliseconds(), time.Now()); err != nil {
			return fmt.Errorf("record study time: %w", err)
		}

		cmd.Printf("Score %d, best streak %d, %d correct, %d wrong\n",
			stats.Score, stats.MaxStreak, stats.CorrectCount, stats.WrongCount)
		return nil
	},
}

// playArcade owns the terminal until the game is closed
func playArcade(ctx context.Context, a *app, pool []arcade.Card, sound bool) (arcade.GameStats, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return arcade.GameStats{}, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return arcade.GameStats{}, fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	// Log lines would tear the screen
	out := a.logger.Out
	a.logger.SetOutput(io.Discard)
	defer a.logger.SetOutput(out)

	cfg := arcade.DefaultConfig()
	cfg.Lives = a.cfg.Arcade.Lives
	host, err := terminal.NewHost(screen, cfg, a.cfg.Arcade.FPS, a.logger)
	if err != nil {
		return arcade.GameStats{}, err
	}
	host.Engine().Subscribe(a.study)

	if sound {
		sm := audio.NewSoundManager()
		if err := sm.Initialize(); err != nil {
			a.logger.WithError(err).Warn("Audio disabled")
		} else {
			defer sm.Close()
			host.Engine().Subscribe(sm)
		}
	}

	if err := host.Run(ctx, pool); err != nil {
		return arcade.GameStats{}, err
	}
	return host.Engine().Stats(), nil
}

func init() {
	rootCmd.AddCommand(arcadeCmd)

	arcadeCmd.Flags().String("deck", "", "play with one deck only")
	arcadeCmd.Flags().Bool("no-sound", false, "mute sound effects")
}
