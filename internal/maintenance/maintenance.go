// Package maintenance runs the periodic survivor jobs on a gocron scheduler:
// the elimination writer, reminder planning and reminder cleanup. Every job
// runs in singleton mode, so a slow run delays the next one instead of
// overlapping it.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/elimination"
	"github.com/Aguirregzz97/quiniela-turbo-sub001/internal/reminder"
)

// Config controls job intervals. Zero duration disables a job.
type Config struct {
	EliminationInterval time.Duration
	EliminationWorkers  int
	ReminderInterval    time.Duration
	CleanupInterval     time.Duration
	ReminderRetention   time.Duration // reminders scheduled longer ago are purged
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		EliminationInterval: 1 * time.Hour,
		EliminationWorkers:  4,
		ReminderInterval:    1 * time.Hour,
		CleanupInterval:     24 * time.Hour,
		ReminderRetention:   30 * 24 * time.Hour,
	}
}

// Eliminator runs the elimination writer.
type Eliminator interface {
	Run(ctx context.Context, opts elimination.RunOptions) elimination.RunResult
}

// Reminders plans reminders.
type Reminders interface {
	Run(ctx context.Context) reminder.Result
}

// Cleaner purges old reminder rows.
type Cleaner interface {
	CleanupReminders(ctx context.Context, cutoff time.Time) (int64, error)
}

// Tasks are the job implementations. A nil task is not scheduled.
type Tasks struct {
	Eliminator Eliminator
	Reminders  Reminders
	Cleaner    Cleaner
}

// Start schedules all configured jobs and blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, cfg Config, tasks Tasks, logger *slog.Logger) error {
	s, err := NewScheduler(ctx, cfg, tasks, logger)
	if err != nil {
		return err
	}
	s.Start()
	logger.Info("Maintenance scheduler started",
		"elimination", cfg.EliminationInterval,
		"reminders", cfg.ReminderInterval,
		"cleanup", cfg.CleanupInterval)

	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		logger.Warn("Maintenance scheduler shutdown", "error", err)
	}
	logger.Info("Maintenance scheduler stopped")
	return nil
}

// NewScheduler builds an unstarted scheduler with one job per configured task.
func NewScheduler(ctx context.Context, cfg Config, tasks Tasks, logger *slog.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		enabled  bool
		fn       func()
	}{
		{"elimination", cfg.EliminationInterval, tasks.Eliminator != nil, func() {
			tasks.Eliminator.Run(ctx, elimination.RunOptions{Workers: cfg.EliminationWorkers})
		}},
		{"reminders", cfg.ReminderInterval, tasks.Reminders != nil, func() {
			tasks.Reminders.Run(ctx)
		}},
		{"cleanup", cfg.CleanupInterval, tasks.Cleaner != nil, func() {
			cleanup(ctx, tasks.Cleaner, cfg.ReminderRetention, logger)
		}},
	}

	for _, j := range jobs {
		if j.interval <= 0 || !j.enabled {
			continue
		}
		_, err := s.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(j.fn),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// cleanup removes reminders scheduled more than retention ago.
func cleanup(ctx context.Context, c Cleaner, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		retention = DefaultConfig().ReminderRetention
	}
	n, err := c.CleanupReminders(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.Warn("Cleanup: failed to purge old reminders", "error", err)
	} else if n > 0 {
		logger.Info("Cleanup: purged old reminders", "count", n)
	}
}
