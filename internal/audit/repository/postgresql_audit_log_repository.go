// Package repository implements audit log persistence for PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	"github.com/openballot/openballot/internal/database"
	apperrors "github.com/openballot/openballot/internal/errors"
)

// PostgreSQLAuditLogRepository implements AuditLog persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLog repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

const auditLogColumns = `id, actor_id, action, resource_type, resource_id, success, detail,
	ip_address, user_agent, device_fingerprint, location, risk_score, risk_level, signature, created_at`

// Create inserts a new AuditLog. Handles nil detail as database NULL.
func (p *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	querier := database.GetTx(ctx, p.db)

	var detailJSON []byte
	var err error

	if auditLog.Detail != nil {
		detailJSON, err = json.Marshal(auditLog.Detail)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log detail")
		}
	}

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
		auditLog.ActorID,
		string(auditLog.Action),
		auditLog.ResourceType,
		auditLog.ResourceID,
		auditLog.Success,
		detailJSON,
		auditLog.RequestMeta.IPAddress,
		auditLog.RequestMeta.UserAgent,
		auditLog.RequestMeta.DeviceFingerprint,
		auditLog.RequestMeta.Location,
		auditLog.RiskScore,
		string(auditLog.RiskLevel),
		auditLog.Signature,
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}

	return nil
}

// GetByID retrieves a single audit log entry.
func (p *PostgreSQLAuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE id = $1`

	auditLog, err := scanAuditLog(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auditDomain.ErrAuditLogNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}

	return auditLog, nil
}

// List retrieves audit logs matching the filter, ordered by ID descending
// (newest first) with pagination. Returns empty slice if nothing matches.
func (p *PostgreSQLAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs`
	where := ""
	args := []any{}

	addClause := func(clause string, arg any) {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		args = append(args, arg)
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.ActorID != nil {
		addClause("actor_id = $%d", *filter.ActorID)
	}
	if filter.Action != nil {
		addClause("action = $%d", string(*filter.Action))
	}
	if filter.Success != nil {
		addClause("success = $%d", *filter.Success)
	}
	if filter.CreatedAtFrom != nil {
		addClause("created_at >= $%d", *filter.CreatedAtFrom)
	}
	if filter.CreatedAtTo != nil {
		addClause("created_at <= $%d", *filter.CreatedAtTo)
	}

	args = append(args, limit, offset)
	query += where + fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() {
		_ = rows.Close()
	}()

	auditLogs := make([]*auditDomain.AuditLog, 0)
	for rows.Next() {
		auditLog, err := scanAuditLog(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}
		auditLogs = append(auditLogs, auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}

	return auditLogs, nil
}

// DeleteOlderThan removes entries whose created_at is before the cutoff.
// Returns the number of deleted rows.
func (p *PostgreSQLAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired audit logs")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted audit logs")
	}

	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(row rowScanner) (*auditDomain.AuditLog, error) {
	var auditLog auditDomain.AuditLog
	var detailJSON []byte
	var action, riskLevel string

	err := row.Scan(
		&auditLog.ID,
		&auditLog.ActorID,
		&action,
		&auditLog.ResourceType,
		&auditLog.ResourceID,
		&auditLog.Success,
		&detailJSON,
		&auditLog.RequestMeta.IPAddress,
		&auditLog.RequestMeta.UserAgent,
		&auditLog.RequestMeta.DeviceFingerprint,
		&auditLog.RequestMeta.Location,
		&auditLog.RiskScore,
		&riskLevel,
		&auditLog.Signature,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	auditLog.Action = auditDomain.Action(action)
	auditLog.RiskLevel = auditDomain.RiskLevel(riskLevel)

	if detailJSON != nil {
		if err := json.Unmarshal(detailJSON, &auditLog.Detail); err != nil {
			return nil, err
		}
	}

	return &auditLog, nil
}
