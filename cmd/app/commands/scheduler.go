package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openballot/openballot/internal/app"
	"github.com/openballot/openballot/internal/config"
)

// RunScheduler starts the background worker loop: election phase
// reconciliation and audit log retention cleanup. Blocks until SIGINT/SIGTERM.
func RunScheduler(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting scheduler",
		slog.String("version", version),
		slog.Duration("interval", cfg.SchedulerInterval),
	)

	defer closeContainer(container, logger)

	sched, err := container.Scheduler()
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched.Start(ctx)

	logger.Info("scheduler stopped")
	return nil
}
