// Package repository implements secret code persistence for PostgreSQL.
//
// Uses native UUID types with transaction support via database.GetTx().
// Attempt counting is done in SQL so concurrent failed validations cannot
// lose increments.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openballot/openballot/internal/database"
	apperrors "github.com/openballot/openballot/internal/errors"
	secretcodeDomain "github.com/openballot/openballot/internal/secretcode/domain"
)

// PostgreSQLSecretCodeRepository implements SecretCode persistence for PostgreSQL.
type PostgreSQLSecretCodeRepository struct {
	db *sql.DB
}

// NewPostgreSQLSecretCodeRepository creates a new PostgreSQL SecretCode repository.
func NewPostgreSQLSecretCodeRepository(db *sql.DB) *PostgreSQLSecretCodeRepository {
	return &PostgreSQLSecretCodeRepository{db: db}
}

// Create inserts a new SecretCode. One active code per (voter, election): a
// unique violation maps to ErrSecretCodeExists.
func (p *PostgreSQLSecretCodeRepository) Create(ctx context.Context, secretCode *secretcodeDomain.SecretCode) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secret_codes (id, voter_id, election_id, code_hash, attempts, locked_until, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		secretCode.ID,
		secretCode.VoterID,
		secretCode.ElectionID,
		secretCode.CodeHash,
		secretCode.Attempts,
		secretCode.LockedUntil,
		secretCode.IsActive,
		secretCode.CreatedAt,
		secretCode.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return secretcodeDomain.ErrSecretCodeExists
		}
		return apperrors.Wrap(err, "failed to create secret code")
	}

	return nil
}

// GetByVoterAndElection retrieves the code for a (voter, election) pair,
// preferring the active row when deactivated predecessors exist. Returns
// ErrSecretCodeNotFound if absent; callers decide how much of that to reveal.
func (p *PostgreSQLSecretCodeRepository) GetByVoterAndElection(
	ctx context.Context,
	voterID, electionID uuid.UUID,
) (*secretcodeDomain.SecretCode, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, voter_id, election_id, code_hash, attempts, locked_until, is_active, created_at, updated_at
			  FROM secret_codes
			  WHERE voter_id = $1 AND election_id = $2
			  ORDER BY is_active DESC, created_at DESC
			  LIMIT 1`

	var secretCode secretcodeDomain.SecretCode
	err := querier.QueryRowContext(ctx, query, voterID, electionID).Scan(
		&secretCode.ID,
		&secretCode.VoterID,
		&secretCode.ElectionID,
		&secretCode.CodeHash,
		&secretCode.Attempts,
		&secretCode.LockedUntil,
		&secretCode.IsActive,
		&secretCode.CreatedAt,
		&secretCode.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretcodeDomain.ErrSecretCodeNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get secret code")
	}

	return &secretCode, nil
}

// IncrementAttempts atomically bumps the attempt counter and returns the new
// value. The increment happens in the database so concurrent failures
// serialize correctly.
func (p *PostgreSQLSecretCodeRepository) IncrementAttempts(ctx context.Context, id uuid.UUID, now time.Time) (int, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secret_codes
			  SET attempts = attempts + 1, updated_at = $2
			  WHERE id = $1
			  RETURNING attempts`

	var attempts int
	err := querier.QueryRowContext(ctx, query, id, now).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, secretcodeDomain.ErrSecretCodeNotFound
		}
		return 0, apperrors.Wrap(err, "failed to increment secret code attempts")
	}

	return attempts, nil
}

// Lock sets the lockout deadline.
func (p *PostgreSQLSecretCodeRepository) Lock(ctx context.Context, id uuid.UUID, until time.Time, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secret_codes
			  SET locked_until = $2, updated_at = $3
			  WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id, until, now); err != nil {
		return apperrors.Wrap(err, "failed to lock secret code")
	}

	return nil
}

// ResetAttempts clears the attempt counter and any lockout deadline after a
// successful validation.
func (p *PostgreSQLSecretCodeRepository) ResetAttempts(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secret_codes
			  SET attempts = 0, locked_until = NULL, updated_at = $2
			  WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id, now); err != nil {
		return apperrors.Wrap(err, "failed to reset secret code attempts")
	}

	return nil
}

// HasConsumedPosition reports whether the code was already used for the position.
func (p *PostgreSQLSecretCodeRepository) HasConsumedPosition(
	ctx context.Context,
	secretCodeID, positionID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS (
				SELECT 1 FROM secret_code_usages
				WHERE secret_code_id = $1 AND position_id = $2
			  )`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, secretCodeID, positionID).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check consumed position")
	}

	return exists, nil
}

// AddConsumedPosition appends a consumption record. A unique violation on
// (secret_code_id, position_id) maps to ErrPositionConsumed.
func (p *PostgreSQLSecretCodeRepository) AddConsumedPosition(
	ctx context.Context,
	consumed *secretcodeDomain.ConsumedPosition,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secret_code_usages (id, secret_code_id, position_id, candidate_id, voted_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		consumed.ID,
		consumed.SecretCodeID,
		consumed.PositionID,
		consumed.CandidateID,
		consumed.VotedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return secretcodeDomain.ErrPositionConsumed
		}
		return apperrors.Wrap(err, "failed to add consumed position")
	}

	return nil
}

// ListConsumedPositions returns the positions a code has been used for.
func (p *PostgreSQLSecretCodeRepository) ListConsumedPositions(
	ctx context.Context,
	secretCodeID uuid.UUID,
) ([]*secretcodeDomain.ConsumedPosition, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_code_id, position_id, candidate_id, voted_at
			  FROM secret_code_usages
			  WHERE secret_code_id = $1
			  ORDER BY voted_at`

	rows, err := querier.QueryContext(ctx, query, secretCodeID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list consumed positions")
	}
	defer func() {
		_ = rows.Close()
	}()

	consumed := make([]*secretcodeDomain.ConsumedPosition, 0)
	for rows.Next() {
		var cp secretcodeDomain.ConsumedPosition
		err := rows.Scan(&cp.ID, &cp.SecretCodeID, &cp.PositionID, &cp.CandidateID, &cp.VotedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan consumed position")
		}
		consumed = append(consumed, &cp)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate consumed positions")
	}

	return consumed, nil
}

// Deactivate turns a code off without deleting it, preserving audit history.
func (p *PostgreSQLSecretCodeRepository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE secret_codes
			  SET is_active = false, updated_at = $2
			  WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id, now); err != nil {
		return apperrors.Wrap(err, "failed to deactivate secret code")
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
