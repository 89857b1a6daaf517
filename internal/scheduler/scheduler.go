package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
	DefaultIntervalMinutes       = 60
)

// Reminder is what a notifier is asked to deliver
type Reminder struct {
	DueCards int
	DueTasks int
}

// Total is the number of things waiting for the user
func (r Reminder) Total() int {
	return r.DueCards + r.DueTasks
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// DueCounter counts cards due for review
type DueCounter interface {
	DueCount(ctx context.Context) int
}

// PendingCounter counts review tasks that are due and not completed
type PendingCounter interface {
	PendingCount(ctx context.Context) int
}

// Options configure when reminders go out
type Options struct {
	IntervalMinutes int
	StartHour       int
	EndHour         int
	Location        *time.Location
}

// Scheduler manages the periodic reminder check
type Scheduler struct {
	scheduler *gocron.Scheduler
	cards     DueCounter
	tasks     PendingCounter
	notifier  Notifier
	opts      Options
	logger    logrus.FieldLogger
	clock     func() time.Time
}

// New creates a new scheduler instance
func New(cards DueCounter, tasks PendingCounter, notifier Notifier, opts Options, logger logrus.FieldLogger) *Scheduler {
	if opts.IntervalMinutes < 1 {
		opts.IntervalMinutes = DefaultIntervalMinutes
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := gocron.NewScheduler(opts.Location)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		cards:     cards,
		tasks:     tasks,
		notifier:  notifier,
		opts:      opts,
		logger:    logger,
		clock:     time.Now,
	}
}

// Start begins running the reminder check every IntervalMinutes. The first
// check runs immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.opts.IntervalMinutes).Minutes().Do(s.runScheduledCheck); err != nil {
		return fmt.Errorf("schedule reminder check: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runScheduledCheck() {
	if _, err := s.checkAndSendReminders(context.Background()); err != nil {
		s.logger.WithError(err).Error("Error sending reminder")
	}
}

// checkAndSendReminders sends a reminder when inside notification hours and
// something is due. It reports whether a reminder went out.
func (s *Scheduler) checkAndSendReminders(ctx context.Context) (bool, error) {
	hour := s.clock().In(s.opts.Location).Hour()
	if !InNotificationHours(hour, s.opts.StartHour, s.opts.EndHour) {
		s.logger.WithFields(logrus.Fields{
			"hour":  hour,
			"start": s.opts.StartHour,
			"end":   s.opts.EndHour,
		}).Debug("Outside notification hours, skipping reminders")
		return false, nil
	}
	_, sent, err := s.CheckNow(ctx)
	return sent, err
}

// CheckNow counts what is due and notifies when the total is positive,
// regardless of the notification hours
func (s *Scheduler) CheckNow(ctx context.Context) (Reminder, bool, error) {
	r := Reminder{
		DueCards: s.cards.DueCount(ctx),
		DueTasks: s.tasks.PendingCount(ctx),
	}
	if r.Total() == 0 {
		return r, false, nil
	}
	if err := s.notifier.SendReminder(ctx, r); err != nil {
		return r, false, fmt.Errorf("send reminder: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"due_cards": r.DueCards,
		"due_tasks": r.DueTasks,
	}).Info("Reminder sent")
	return r, true, nil
}

// InNotificationHours reports whether hour falls in [start, end]. A window
// with start after end wraps past midnight.
func InNotificationHours(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}
