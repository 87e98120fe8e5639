package usecase

import (
	"context"
	"time"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	"github.com/openballot/openballot/internal/metrics"
)

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Record records the computed risk score distribution per action.
func (a *auditLogUseCaseWithMetrics) Record(ctx context.Context, input RecordInput) *auditDomain.AuditLog {
	auditLog := a.next.Record(ctx, input)

	a.metrics.RecordRiskScore(ctx, string(input.Action), auditLog.RiskScore)
	if input.Action == auditDomain.ActionSecurityEvent {
		if eventType, ok := input.Detail["event_type"].(string); ok {
			a.metrics.RecordSecurityEvent(ctx, eventType)
		}
	}

	return auditLog
}

// List records metrics for audit log list operations.
func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	start := time.Now()
	auditLogs, err := a.next.List(ctx, filter, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_list", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_list", time.Since(start), status)

	return auditLogs, err
}

// Verify records metrics for signature verification sweeps.
func (a *auditLogUseCaseWithMetrics) Verify(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) (*VerifyReport, error) {
	start := time.Now()
	report, err := a.next.Verify(ctx, filter, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_verify", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_verify", time.Since(start), status)

	return report, err
}

// CleanupExpired records metrics for retention cleanup operations.
func (a *auditLogUseCaseWithMetrics) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	start := time.Now()
	deleted, err := a.next.CleanupExpired(ctx, retention)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "audit", "audit_log_cleanup", status)
	a.metrics.RecordDuration(ctx, "audit", "audit_log_cleanup", time.Since(start), status)

	return deleted, err
}
