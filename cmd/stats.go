package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streak, level and today's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("target") {
			n, _ := cmd.Flags().GetInt("target")
			target, err := a.ledger.SetDailyTarget(ctx, n)
			if err != nil {
				return err
			}
			cmd.Printf("Daily target set to %d cards\n", target)
		}

		s := a.ledger.Stats(ctx)
		today := a.ledger.TodayProgress(ctx, time.Now())
		cmd.Printf("Level %d (%d/%d XP)\n", s.Level, s.CurrentXP, s.NextLevelXP)
		cmd.Printf("Streak %d day(s), best %d\n", s.Streak, s.MaxStreak)
		cmd.Printf("Today %d/%d cards (%d%%)\n", today.Reviewed, today.Target, today.Percent)
		cmd.Printf("Reviewed %d: %d correct, %d wrong\n", s.TotalCardsReviewed, s.TotalCorrect, s.TotalWrong)
		cmd.Printf("Study time %s\n", (time.Duration(s.TotalStudyTimeMs) * time.Millisecond).Round(time.Second))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("target", 0, "set the daily card target")
}
