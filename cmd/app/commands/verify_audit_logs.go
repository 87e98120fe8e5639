package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/openballot/openballot/internal/app"
	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/config"
)

// RunVerifyAuditLogs re-checks stored audit signatures over a page of entries
// and reports every entry whose signature no longer matches its content.
// A non-empty report means the audit trail was altered after the fact.
//
// Requirements: Database must be migrated and accessible. The configured
// AUDIT_SIGNING_KEY must be the key the entries were signed with.
func RunVerifyAuditLogs(ctx context.Context, offset, limit int, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.AuditLogUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize audit log use case: %w", err)
	}

	return verifyAuditLogs(ctx, useCase, logger, DefaultIO().Writer, offset, limit, format)
}

// verifyAuditLogs is the testable core of RunVerifyAuditLogs.
func verifyAuditLogs(
	ctx context.Context,
	useCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	offset, limit int,
	format string,
) error {
	if limit <= 0 {
		limit = 100
	}

	logger.Info("verifying audit log signatures",
		slog.Int("offset", offset),
		slog.Int("limit", limit),
	)

	report, err := useCase.Verify(ctx, auditDomain.ListFilter{}, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	if format == "json" {
		invalid := make([]string, 0, len(report.InvalidIDs))
		for _, id := range report.InvalidIDs {
			invalid = append(invalid, id.String())
		}
		result := map[string]interface{}{
			"checked": report.Checked,
			"invalid": invalid,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Checked %d audit log(s)\n", report.Checked)
		if len(report.InvalidIDs) == 0 {
			_, _ = fmt.Fprintln(writer, "All signatures valid")
		} else {
			_, _ = fmt.Fprintf(writer, "INVALID signatures: %d\n", len(report.InvalidIDs))
			for _, id := range report.InvalidIDs {
				_, _ = fmt.Fprintf(writer, "  %s\n", id.String())
			}
		}
	}

	if len(report.InvalidIDs) > 0 {
		return fmt.Errorf("%d audit log(s) failed signature verification", len(report.InvalidIDs))
	}

	logger.Info("audit log verification completed", slog.Int("checked", report.Checked))
	return nil
}
