package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/bot"
	"github.com/example/katasensei/internal/scheduler"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Check for due reviews once and send a reminder, ignoring notification hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var notifier scheduler.Notifier = bot.LogNotifier{Logger: a.logger}
		if a.cfg.Telegram.Token != "" {
			tg, err := bot.New(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, a, a.logger)
			if err != nil {
				return fmt.Errorf("telegram: %w", err)
			}
			notifier = tg
		}

		sched := scheduler.New(a.decks, a.tasks, notifier, scheduler.Options{}, a.logger)
		reminder, sent, err := sched.CheckNow(ctx)
		if err != nil {
			return err
		}
		if !sent {
			cmd.Println("Nothing due")
			return nil
		}
		cmd.Println(bot.FormatReminder(reminder))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(remindCmd)
}
