package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditService "github.com/openballot/openballot/internal/audit/service"
	"github.com/openballot/openballot/internal/clock"
	"github.com/openballot/openballot/internal/database"
	apperrors "github.com/openballot/openballot/internal/errors"
)

// auditLogUseCase implements AuditLogUseCase. Recording is append-only: every
// entry gets a write-time risk score and an HMAC signature before persistence.
type auditLogUseCase struct {
	auditLogRepo  AuditLogRepository
	signer        auditService.Signer
	signingKey    []byte
	clock         clock.Clock
	logger        *slog.Logger
	retryAttempts int
	retryBackoff  time.Duration
}

// NewAuditLogUseCase creates a new AuditLogUseCase with the provided dependencies.
func NewAuditLogUseCase(
	auditLogRepo AuditLogRepository,
	signer auditService.Signer,
	signingKey []byte,
	clk clock.Clock,
	logger *slog.Logger,
	retryAttempts int,
	retryBackoff time.Duration,
) AuditLogUseCase {
	return &auditLogUseCase{
		auditLogRepo:  auditLogRepo,
		signer:        signer,
		signingKey:    signingKey,
		clock:         clk,
		logger:        logger,
		retryAttempts: retryAttempts,
		retryBackoff:  retryBackoff,
	}
}

// Record builds, scores, signs and persists an audit entry. A persistence
// failure is retried with backoff and then logged locally; it never propagates
// to the caller, so audited operations cannot fail because auditing failed.
func (a *auditLogUseCase) Record(ctx context.Context, input RecordInput) *auditDomain.AuditLog {
	now := a.clock.Now()
	score, level := auditDomain.ComputeRiskScore(input.Action, input.Success, now, input.RequestMeta)

	auditLog := &auditDomain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorID:      input.ActorID,
		Action:       input.Action,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		Success:      input.Success,
		Detail:       input.Detail,
		RequestMeta:  input.RequestMeta,
		RiskScore:    score,
		RiskLevel:    level,
		CreatedAt:    now,
	}

	signature, err := a.signer.Sign(a.signingKey, auditLog)
	if err != nil {
		a.logger.Error("failed to sign audit log",
			slog.String("action", string(input.Action)),
			slog.String("error", err.Error()),
		)
		return auditLog
	}
	auditLog.Signature = signature

	err = database.WithRetry(ctx, a.retryAttempts, a.retryBackoff, func(ctx context.Context) error {
		return a.auditLogRepo.Create(ctx, auditLog)
	})
	if err != nil {
		a.logger.Error("failed to persist audit log",
			slog.String("audit_log_id", auditLog.ID.String()),
			slog.String("action", string(input.Action)),
			slog.Int("risk_score", score),
			slog.String("error", err.Error()),
		)
	}

	return auditLog
}

// List retrieves entries matching the filter, newest first.
func (a *auditLogUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}

	return auditLogs, nil
}

// Verify re-computes signatures over a page of stored entries and reports
// entries that fail verification.
func (a *auditLogUseCase) Verify(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) (*VerifyReport, error) {
	auditLogs, err := a.auditLogRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs for verification")
	}

	report := &VerifyReport{}
	for _, auditLog := range auditLogs {
		report.Checked++
		if err := a.signer.Verify(a.signingKey, auditLog); err != nil {
			report.InvalidIDs = append(report.InvalidIDs, auditLog.ID)
		}
	}

	return report, nil
}

// CleanupExpired deletes entries older than the retention period.
func (a *auditLogUseCase) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := a.clock.Now().Add(-retention)

	deleted, err := a.auditLogRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clean up expired audit logs")
	}

	return deleted, nil
}
