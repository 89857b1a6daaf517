package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/quiz"
	"github.com/example/katasensei/internal/spaced_repetition"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Answer due cards as a quiz in the terminal",
	Long: `Asks about due cards in study order. Every answer grades the card
and counts towards streak and XP. Answer types:
  choice   pick the meaning by number
  romaji   type the romaji of the word
  context  type the word blanked out of its example sentence`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		typeName, _ := cmd.Flags().GetString("type")
		count, _ := cmd.Flags().GetInt("count")
		deckID, _ := cmd.Flags().GetString("deck")

		qtype, err := quiz.ParseType(typeName)
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		questions, err := quiz.NewBuilder(nil).Build(
			a.decks.StudyQueue(ctx, deckID, 0), a.decks.ListCards(ctx, ""), count, qtype)
		if errors.Is(err, quiz.ErrNoCards) {
			cmd.Println("Nothing due. Come back later!")
			return nil
		}
		if err != nil {
			return err
		}

		started := time.Now()
		in := bufio.NewScanner(cmd.InOrStdin())
		var result quiz.Result
		for i, q := range questions {
			cmd.Printf("\n[%d/%d] %s\n", i+1, len(questions), q.Prompt())
			for n, opt := range q.Options {
				cmd.Printf("  %d. %s\n", n+1, opt)
			}
			cmd.Print("> ")
			if !in.Scan() {
				break
			}

			correct := q.Check(in.Text())
			result.Total++
			if correct {
				result.Correct++
				cmd.Println("Benar!")
			} else {
				cmd.Printf("Salah, jawabannya %s\n", q.Answer())
			}

			res, err := a.study.Review(ctx, q.Card.ID, spaced_repetition.QualityFromAnswer(correct))
			if err != nil {
				return err
			}
			if res.LevelUp.LeveledUp {
				cmd.Printf("Level up! You are now level %d\n", res.LevelUp.Level)
			}
		}
		if err := in.Err(); err != nil {
			return fmt.Errorf("read answer: %w", err)
		}

		if _, err := a.ledger.RecordStudyTime(ctx, time.Since(started).Milliseconds(), time.Now()); err != nil {
			return fmt.Errorf("record study time: %w", err)
		}
		cmd.Printf("\n%d/%d correct (%d%%)\n", result.Correct, result.Total, result.Percent())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().StringP("type", "t", "choice", "question type: choice, romaji or context")
	quizCmd.Flags().IntP("count", "n", 10, "number of questions (0 for every due card)")
	quizCmd.Flags().String("deck", "", "only cards of this deck")
}
