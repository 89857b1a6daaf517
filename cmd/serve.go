package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/katasensei/internal/bot"
	"github.com/example/katasensei/internal/httpapi"
	"github.com/example/katasensei/internal/scheduler"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, review reminders and the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if off, _ := cmd.Flags().GetBool("no-reminders"); off {
			viper.Set("reminder.enabled", false)
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		logger := a.logger

		if logger.GetLevel() < logrus.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		var notifier scheduler.Notifier = bot.LogNotifier{Logger: logger}
		var tg *bot.Bot
		if a.cfg.Telegram.Token != "" {
			tg, err = bot.New(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, a, logger)
			if err != nil {
				return fmt.Errorf("telegram: %w", err)
			}
			notifier = tg
		}

		if a.cfg.Reminder.Enabled {
			sched := scheduler.New(a.decks, a.tasks, notifier, scheduler.Options{
				IntervalMinutes: a.cfg.Reminder.IntervalMinutes,
				StartHour:       a.cfg.Reminder.StartHour,
				EndHour:         a.cfg.Reminder.EndHour,
			}, logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("start reminders: %w", err)
			}
			defer sched.Stop()
		}

		srv := &http.Server{
			Addr: a.cfg.ServerAddr(),
			Handler: httpapi.NewRouter(httpapi.Deps{
				Decks:  a.decks,
				Tasks:  a.tasks,
				Ledger: a.ledger,
				Study:  a.study,
				Logger: logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 2)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		if tg != nil {
			go func() {
				if err := tg.Run(ctx); err != nil {
					errCh <- fmt.Errorf("telegram: %w", err)
				}
			}()
		}
		logger.WithField("addr", srv.Addr).Info("HTTP API listening")

		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
		case err := <-errCh:
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "HTTP port (overrides SERVER_PORT)")
	serveCmd.Flags().Bool("no-reminders", false, "disable the periodic due-review reminder")

	bindFlagToViper("server.port", serveCmd.Flags().Lookup("port"))
}
