package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/spaced_repetition"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List the cards due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deckID, _ := cmd.Flags().GetString("deck")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		queue := a.decks.StudyQueue(ctx, deckID, limit)
		if len(queue) == 0 {
			cmd.Println("Nothing due. Come back later!")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tJAPANESE\tROMAJI\tMEANING\tLAST REVIEWED")
		for _, c := range queue {
			last := "never"
			if c.ReviewMeta.LastReviewed != nil {
				last = c.ReviewMeta.LastReviewed.Local().Format(time.DateOnly)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Japanese, c.Romaji, c.Indonesia, last)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		cmd.Printf("%d due\n", a.decks.DueCount(ctx))
		return nil
	},
}

var gradeCmd = &cobra.Command{
	Use:   "grade CARD_ID [QUALITY]",
	Short: "Grade a card on the 0-5 scale, or with --correct / --wrong",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		correct, _ := cmd.Flags().GetBool("correct")
		wrong, _ := cmd.Flags().GetBool("wrong")

		var q spaced_repetition.Quality
		switch {
		case len(args) == 2:
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quality must be a number from 0 to 5")
			}
			q = spaced_repetition.Quality(n)
		case correct != wrong:
			q = spaced_repetition.QualityFromAnswer(correct)
		default:
			return fmt.Errorf("give a quality or exactly one of --correct and --wrong")
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.study.Review(ctx, args[0], q)
		if err != nil {
			return err
		}
		meta := res.Card.ReviewMeta
		cmd.Printf("%s: next review %s (in %d day(s), ease %.2f)\n",
			res.Card.Japanese, meta.NextReview.Local().Format(time.DateOnly), meta.Interval, meta.EaseFactor)
		if res.LevelUp.LeveledUp {
			cmd.Printf("Level up! You are now level %d\n", res.LevelUp.Level)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(gradeCmd)

	dueCmd.Flags().String("deck", "", "only cards of this deck")
	dueCmd.Flags().Int("limit", 20, "maximum number of cards to list (0 for all)")

	gradeCmd.Flags().Bool("correct", false, "record a correct answer")
	gradeCmd.Flags().Bool("wrong", false, "record a wrong answer")
}
