// Package repository implements eligibility grant persistence for PostgreSQL.
// Granted positions are stored as a JSONB array on the grant row.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openballot/openballot/internal/database"
	eligibilityDomain "github.com/openballot/openballot/internal/eligibility/domain"
	apperrors "github.com/openballot/openballot/internal/errors"
)

// PostgreSQLEligibilityGrantRepository implements grant persistence for PostgreSQL.
type PostgreSQLEligibilityGrantRepository struct {
	db *sql.DB
}

// NewPostgreSQLEligibilityGrantRepository creates a new PostgreSQL grant repository.
func NewPostgreSQLEligibilityGrantRepository(db *sql.DB) *PostgreSQLEligibilityGrantRepository {
	return &PostgreSQLEligibilityGrantRepository{db: db}
}

// Create inserts a new grant. One grant per (voter, election): a unique
// violation maps to ErrGrantExists.
func (p *PostgreSQLEligibilityGrantRepository) Create(
	ctx context.Context,
	grant *eligibilityDomain.EligibilityGrant,
) error {
	querier := database.GetTx(ctx, p.db)

	positionsJSON, err := json.Marshal(grant.Positions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal grant positions")
	}

	query := `INSERT INTO eligibility_grants (id, voter_id, election_id, status, positions, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(
		ctx,
		query,
		grant.ID,
		grant.VoterID,
		grant.ElectionID,
		string(grant.Status),
		positionsJSON,
		grant.CreatedAt,
		grant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return eligibilityDomain.ErrGrantExists
		}
		return apperrors.Wrap(err, "failed to create eligibility grant")
	}

	return nil
}

// GetByVoterAndElection retrieves the grant for a (voter, election) pair.
func (p *PostgreSQLEligibilityGrantRepository) GetByVoterAndElection(
	ctx context.Context,
	voterID, electionID uuid.UUID,
) (*eligibilityDomain.EligibilityGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, voter_id, election_id, status, positions, created_at, updated_at
			  FROM eligibility_grants
			  WHERE voter_id = $1 AND election_id = $2`

	var grant eligibilityDomain.EligibilityGrant
	var status string
	var positionsJSON []byte

	err := querier.QueryRowContext(ctx, query, voterID, electionID).Scan(
		&grant.ID,
		&grant.VoterID,
		&grant.ElectionID,
		&status,
		&positionsJSON,
		&grant.CreatedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eligibilityDomain.ErrGrantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get eligibility grant")
	}

	grant.Status = eligibilityDomain.Status(status)
	if err := json.Unmarshal(positionsJSON, &grant.Positions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal grant positions")
	}

	return &grant, nil
}

// UpdateStatus moves the grant to a new lifecycle status.
func (p *PostgreSQLEligibilityGrantRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status eligibilityDomain.Status,
	now time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE eligibility_grants
			  SET status = $2, updated_at = $3
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id, string(status), now)
	if err != nil {
		return apperrors.Wrap(err, "failed to update eligibility grant status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check eligibility grant update")
	}
	if affected == 0 {
		return eligibilityDomain.ErrGrantNotFound
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
