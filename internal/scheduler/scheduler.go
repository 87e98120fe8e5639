package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Task is a named unit of periodic work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs its tasks sequentially on a fixed interval until the
// context is cancelled. A failing or panicking task never stops the
// loop or the remaining tasks of the tick.
type Scheduler struct {
	interval time.Duration
	tasks    []Task
	logger   *slog.Logger
}

func NewScheduler(interval time.Duration, tasks []Task, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		interval: interval,
		tasks:    tasks,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled. The first tick runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("tasks", len(s.tasks)),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunTick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunTick(ctx)
		}
	}
}

// RunTick runs every task once. Exposed so callers can trigger a
// deterministic pass outside the ticker loop.
func (s *Scheduler) RunTick(ctx context.Context) {
	for _, task := range s.tasks {
		if ctx.Err() != nil {
			return
		}
		s.runTask(ctx, task)
	}
}

func (s *Scheduler) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				slog.String("task", task.Name),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
		}
	}()

	started := time.Now()
	if err := task.Run(ctx); err != nil {
		s.logger.Error("scheduled task failed",
			slog.String("task", task.Name),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(started)),
		)
		return
	}

	s.logger.Debug("scheduled task finished",
		slog.String("task", task.Name),
		slog.Duration("elapsed", time.Since(started)),
	)
}
