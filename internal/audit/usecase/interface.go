// Package usecase defines business logic interfaces for the audit trail.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
)

// AuditLogRepository defines persistence operations for audit log entries.
// Implementations must support transaction-aware operations via context propagation.
type AuditLogRepository interface {
	// Create stores a new entry in the repository.
	Create(ctx context.Context, auditLog *auditDomain.AuditLog) error

	// GetByID retrieves an entry by ID. Returns ErrAuditLogNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error)

	// List retrieves entries matching the filter, newest first.
	List(ctx context.Context, filter auditDomain.ListFilter, offset, limit int) ([]*auditDomain.AuditLog, error)

	// DeleteOlderThan removes entries created before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RecordInput describes one security-relevant outcome to be recorded. The
// entry ID, timestamp, risk score and signature are filled in by the usecase.
type RecordInput struct {
	ActorID      uuid.UUID
	Action       auditDomain.Action
	ResourceType string
	ResourceID   string
	Success      bool
	Detail       map[string]any
	RequestMeta  auditDomain.RequestMeta
}

// VerifyReport summarizes a signature verification sweep over stored entries.
type VerifyReport struct {
	Checked    int
	InvalidIDs []uuid.UUID
}

// AuditLogUseCase defines business logic operations for the audit trail.
type AuditLogUseCase interface {
	// Record computes the risk score, signs the entry and persists it.
	// Recording never fails the caller's operation: persistence errors are
	// logged and swallowed. Returns the entry as written for observability.
	Record(ctx context.Context, input RecordInput) *auditDomain.AuditLog

	// List retrieves entries matching the filter with pagination.
	List(ctx context.Context, filter auditDomain.ListFilter, offset, limit int) ([]*auditDomain.AuditLog, error)

	// Verify re-checks stored signatures over a page of entries and reports
	// any entry whose signature no longer matches its content.
	Verify(ctx context.Context, filter auditDomain.ListFilter, offset, limit int) (*VerifyReport, error)

	// CleanupExpired deletes entries older than the retention period.
	// Returns the number of deleted entries.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}
