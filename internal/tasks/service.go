package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/example/katasensei/internal/database"
	"github.com/example/katasensei/pkg/models"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskCompleted = errors.New("completed task cannot be reopened")
	ErrInvalidTask   = errors.New("invalid task")
)

// NewTask is the input for Create
type NewTask struct {
	CardIDs       []string  `json:"cardIds"`
	DeckID        string    `json:"deckId,omitempty"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Title         string    `json:"title,omitempty"`
}

// Groups partitions tasks for display
type Groups struct {
	Overdue   []models.ReviewTask `json:"overdue"`
	Today     []models.ReviewTask `json:"today"`
	Upcoming  []models.ReviewTask `json:"upcoming"`
	Completed []models.ReviewTask `json:"completed"`
}

// Service manages scheduled review tasks
type Service struct {
	storage *database.Storage
	logger  logrus.FieldLogger
	clock   func() time.Time

	mu sync.Mutex
}

// NewService creates a task service on top of storage
func NewService(storage *database.Storage, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		storage: storage,
		logger:  logger,
		clock:   time.Now,
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Service) load(ctx context.Context) []models.ReviewTask {
	return database.Get(ctx, s.storage, database.TasksKey, []models.ReviewTask{})
}

func (s *Service) save(ctx context.Context, tasks []models.ReviewTask) error {
	if err := database.Set(ctx, s.storage, database.TasksKey, tasks); err != nil {
		return fmt.Errorf("error saving tasks: %w", err)
	}
	return nil
}

// Create schedules a new pending task
func (s *Service) Create(ctx context.Context, in NewTask) (models.ReviewTask, error) {
	cardIDs := lo.Uniq(lo.Filter(in.CardIDs, func(id string, _ int) bool { return id != "" }))
	if len(cardIDs) == 0 {
		return models.ReviewTask{}, fmt.Errorf("%w: at least one card is required", ErrInvalidTask)
	}
	if in.ScheduledTime.IsZero() {
		return models.ReviewTask{}, fmt.Errorf("%w: scheduled time is required", ErrInvalidTask)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = fmt.Sprintf("Review %d kata", len(cardIDs))
	}

	task := models.ReviewTask{
		ID:            "task_" + uuid.NewString(),
		CardIDs:       cardIDs,
		DeckID:        in.DeckID,
		ScheduledTime: in.ScheduledTime.UTC(),
		Title:         title,
		CreatedAt:     s.clock().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, append(s.load(ctx), task)); err != nil {
		return models.ReviewTask{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"cards":     len(cardIDs),
		"scheduled": task.ScheduledTime.Format(time.RFC3339),
	}).Info("review task scheduled")
	return task, nil
}

// Get returns the task with the given id
func (s *Service) Get(ctx context.Context, id string) (models.ReviewTask, error) {
	task, ok := lo.Find(s.load(ctx), func(t models.ReviewTask) bool { return t.ID == id })
	if !ok {
		return models.ReviewTask{}, ErrTaskNotFound
	}
	return task, nil
}

// List returns every task in creation order
func (s *Service) List(ctx context.Context) []models.ReviewTask {
	return s.load(ctx)
}

// Update replaces a stored task. A completed task cannot be made pending again.
func (s *Service) Update(ctx context.Context, task models.ReviewTask) (models.ReviewTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.load(ctx)
	existing, idx, ok := lo.FindIndexOf(tasks, func(t models.ReviewTask) bool { return t.ID == task.ID })
	if !ok {
		return models.ReviewTask{}, ErrTaskNotFound
	}
	if existing.Completed && !task.Completed {
		return models.ReviewTask{}, ErrTaskCompleted
	}
	if len(task.CardIDs) == 0 || task.ScheduledTime.IsZero() {
		return models.ReviewTask{}, fmt.Errorf("%w: cards and scheduled time are required", ErrInvalidTask)
	}

	task.CreatedAt = existing.CreatedAt
	task.ScheduledTime = task.ScheduledTime.UTC()
	tasks[idx] = task
	if err := s.save(ctx, tasks); err != nil {
		return models.ReviewTask{}, err
	}
	return task, nil
}

// Complete marks the task completed. Completing twice is not an error.
func (s *Service) Complete(ctx context.Context, id string) (models.ReviewTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.load(ctx)
	_, idx, ok := lo.FindIndexOf(tasks, func(t models.ReviewTask) bool { return t.ID == id })
	if !ok {
		return models.ReviewTask{}, ErrTaskNotFound
	}
	if tasks[idx].Completed {
		return tasks[idx], nil
	}
	tasks[idx].Completed = true
	if err := s.save(ctx, tasks); err != nil {
		return models.ReviewTask{}, err
	}
	s.logger.WithField("task_id", id).Info("review task completed")
	return tasks[idx], nil
}

// Delete removes a task
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.load(ctx)
	kept := lo.Reject(tasks, func(t models.ReviewTask, _ int) bool { return t.ID == id })
	if len(kept) == len(tasks) {
		return ErrTaskNotFound
	}
	return s.save(ctx, kept)
}

// Due returns pending tasks scheduled at or before now
func (s *Service) Due(ctx context.Context) []models.ReviewTask {
	now := s.clock()
	return lo.Filter(s.load(ctx), func(t models.ReviewTask, _ int) bool {
		return !t.Completed && !t.ScheduledTime.After(now)
	})
}

// GroupByStatus buckets every task relative to the current day
func (s *Service) GroupByStatus(ctx context.Context) Groups {
	return Group(s.load(ctx), s.clock())
}

// PendingCount returns the number of tasks that need attention now
func (s *Service) PendingCount(ctx context.Context) int {
	now := s.clock()
	return PendingCount(Group(s.load(ctx), now), now)
}

// Group partitions tasks into overdue, today and upcoming by comparing the
// scheduled time with [start of today, start of tomorrow) in now's location.
// Completed tasks go to their own bucket regardless of time.
func Group(tasks []models.ReviewTask, now time.Time) Groups {
	y, m, d := now.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)

	g := Groups{
		Overdue:   []models.ReviewTask{},
		Today:     []models.ReviewTask{},
		Upcoming:  []models.ReviewTask{},
		Completed: []models.ReviewTask{},
	}
	for _, t := range tasks {
		switch {
		case t.Completed:
			g.Completed = append(g.Completed, t)
		case t.ScheduledTime.Before(todayStart):
			g.Overdue = append(g.Overdue, t)
		case t.ScheduledTime.Before(todayEnd):
			g.Today = append(g.Today, t)
		default:
			g.Upcoming = append(g.Upcoming, t)
		}
	}

	ascending := func(list []models.ReviewTask) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].ScheduledTime.Before(list[j].ScheduledTime)
		})
	}
	ascending(g.Overdue)
	ascending(g.Today)
	ascending(g.Upcoming)
	sort.SliceStable(g.Completed, func(i, j int) bool {
		return g.Completed[i].ScheduledTime.After(g.Completed[j].ScheduledTime)
	})
	return g
}

// PendingCount counts overdue tasks plus today's tasks that are already due
func PendingCount(g Groups, now time.Time) int {
	return len(g.Overdue) + lo.CountBy(g.Today, func(t models.ReviewTask) bool {
		return !t.ScheduledTime.After(now)
	})
}
