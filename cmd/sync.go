package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/katasensei/internal/cloudsync"
	"github.com/example/katasensei/internal/database"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync decks, cards and stats with the cloud document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		upload, _ := cmd.Flags().GetBool("upload")
		status, _ := cmd.Flags().GetBool("status")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Cloud.DSN == "" {
			return fmt.Errorf("cloud sync is not configured, set CLOUD_DSN")
		}
		remoteDB, err := database.Connect("postgres", a.cfg.Cloud.DSN)
		if err != nil {
			return fmt.Errorf("cloud connect: %w", err)
		}
		defer remoteDB.Close()

		userID := a.cfg.Cloud.UserID
		syncer := cloudsync.NewSyncer(a.decks, a.ledger, cloudsync.NewSQLRemote(remoteDB), a.logger)

		switch {
		case status:
			at, ok, err := syncer.LastSyncTime(ctx, userID)
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("Never synced")
				return nil
			}
			cmd.Printf("Last synced %s\n", at.Local().Format(time.DateTime))
		case upload:
			if err := syncer.Upload(ctx, userID); err != nil {
				return err
			}
			cmd.Println("Uploaded")
		default:
			outcome, err := syncer.Sync(ctx, userID)
			if err != nil {
				return err
			}
			cmd.Printf("Sync complete: %s\n", outcome)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("upload", false, "overwrite the cloud copy with local data")
	syncCmd.Flags().Bool("status", false, "only show when the cloud copy was last written")
	syncCmd.Flags().String("user", "", "cloud user id (overrides CLOUD_USER_ID)")

	bindFlagToViper("cloud.user_id", syncCmd.Flags().Lookup("user"))
}
