package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/tasks"
	"github.com/example/katasensei/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Schedule and manage review tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add CARD_ID...",
	Short: "Schedule a review of the given cards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		preset, _ := cmd.Flags().GetString("preset")
		date, _ := cmd.Flags().GetString("date")
		clock, _ := cmd.Flags().GetString("time")
		deckID, _ := cmd.Flags().GetString("deck")
		title, _ := cmd.Flags().GetString("title")

		now := time.Now()
		var at time.Time
		var err error
		if date != "" || clock != "" {
			at, err = tasks.CustomTime(date, clock, now)
		} else {
			at, err = tasks.PresetTime(tasks.Preset(preset), now)
		}
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.tasks.Create(ctx, tasks.NewTask{
			CardIDs:       args,
			DeckID:        deckID,
			ScheduledTime: at,
			Title:         title,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Scheduled %q for %s (%s)\n", task.Title, task.ScheduledTime.Local().Format("Mon 02 Jan 15:04"), task.ID)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review tasks grouped by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		groups := a.tasks.GroupByStatus(ctx)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		writeTaskGroup(w, "Overdue", groups.Overdue)
		writeTaskGroup(w, "Today", groups.Today)
		writeTaskGroup(w, "Upcoming", groups.Upcoming)
		if all {
			writeTaskGroup(w, "Completed", groups.Completed)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		cmd.Printf("%d pending\n", a.tasks.PendingCount(ctx))
		return nil
	},
}

func writeTaskGroup(w io.Writer, name string, list []models.ReviewTask) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d)\n", name, len(list))
	for _, t := range list {
		fmt.Fprintf(w, "  %s\t%s\t%d card(s)\t%s\n",
			t.ScheduledTime.Local().Format("2006-01-02 15:04"), t.Title, len(t.CardIDs), t.ID)
	}
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete TASK_ID",
	Short: "Mark a review task as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.tasks.Complete(ctx, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Completed %q\n", task.Title)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete TASK_ID",
	Short: "Delete a review task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tasks.Delete(ctx, args[0]); err != nil {
			return err
		}
		cmd.Println("Deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskCompleteCmd, taskDeleteCmd)

	taskAddCmd.Flags().String("preset", string(tasks.Preset3h), "3h, 6h, tomorrow_morning or tomorrow_evening")
	taskAddCmd.Flags().String("date", "", "custom date, 2006-01-02")
	taskAddCmd.Flags().String("time", "", "custom time of day, 15:04")
	taskAddCmd.Flags().String("deck", "", "deck the cards belong to")
	taskAddCmd.Flags().String("title", "", "task title (default \"Review N kata\")")

	taskListCmd.Flags().Bool("all", false, "include completed tasks")
}
