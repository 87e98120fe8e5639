package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/openballot/openballot/internal/app"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/config"
)

// RunCleanAuditLogs deletes audit logs older than the specified number of days.
// Supports both text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanAuditLogs(ctx context.Context, days int, format string) error {
	// Validate days parameter
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.AuditLogUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize audit log use case: %w", err)
	}

	return cleanAuditLogs(ctx, useCase, logger, DefaultIO().Writer, days, format)
}

// cleanAuditLogs is the testable core of RunCleanAuditLogs.
func cleanAuditLogs(
	ctx context.Context,
	useCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning audit logs", slog.Int("days", days))

	retention := time.Duration(days) * 24 * time.Hour
	count, err := useCase.CleanupExpired(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to delete audit logs: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"count": count,
			"days":  days,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d audit log(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
	)
	return nil
}
