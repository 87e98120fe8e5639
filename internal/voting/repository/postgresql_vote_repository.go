// Package repository implements vote persistence for PostgreSQL.
//
// Ballot uniqueness is enforced by database constraints, not application
// checks: the (election, voter, position) triple, the content hash and the
// session token each carry a named unique constraint, and the insert maps
// each violation to its own domain error.
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
	electionDomain "github.com/openballot/openballot/internal/election/domain"
	apperrors "github.com/openballot/openballot/internal/errors"
	votingDomain "github.com/openballot/openballot/internal/voting/domain"
)

// Named unique constraints on the votes table.
const (
	constraintBallotTriple = "votes_ballot_unique"
	constraintContentHash  = "votes_content_hash_unique"
	constraintSessionToken = "votes_session_token_unique"
)

const voteColumns = `id, election_id, position_id, candidate_id, voter_id, secret_code_id, grant_id,
	session_token, content_hash, status, dispute_reason, dispute_submitted_by, created_at, updated_at`

// PostgreSQLVoteRepository implements Vote persistence for PostgreSQL.
type PostgreSQLVoteRepository struct {
	db *sql.DB
}

// NewPostgreSQLVoteRepository creates a new PostgreSQL Vote repository.
func NewPostgreSQLVoteRepository(db *sql.DB) *PostgreSQLVoteRepository {
	return &PostgreSQLVoteRepository{db: db}
}

// Create inserts a new vote. The constraint that fired decides the error:
// the ballot triple maps to ErrDuplicateVote, content hash and session token
// map to ErrDuplicateBallot.
func (p *PostgreSQLVoteRepository) Create(ctx context.Context, vote *votingDomain.Vote) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO votes (` + voteColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := querier.ExecContext(
		ctx,
		query,
		vote.ID,
		vote.ElectionID,
		vote.PositionID,
		vote.CandidateID,
		vote.VoterID,
		vote.SecretCodeID,
		vote.GrantID,
		vote.SessionToken,
		vote.ContentHash,
		vote.Status,
		nullIfEmpty(vote.DisputeReason),
		nullIfEmpty(vote.DisputeSubmittedBy),
		vote.CreatedAt,
		vote.UpdatedAt,
	)
	if err != nil {
		switch {
		case violatesConstraint(err, constraintBallotTriple):
			return votingDomain.ErrDuplicateVote
		case violatesConstraint(err, constraintContentHash),
			violatesConstraint(err, constraintSessionToken):
			return votingDomain.ErrDuplicateBallot
		case isUniqueViolation(err):
			return votingDomain.ErrDuplicateVote
		}
		return apperrors.Wrap(err, "failed to create vote")
	}

	return nil
}

// GetByID retrieves a vote. Returns ErrVoteNotFound if absent.
func (p *PostgreSQLVoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*votingDomain.Vote, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + voteColumns + ` FROM votes WHERE id = $1`

	vote, err := scanVote(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, votingDomain.ErrVoteNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get vote")
	}

	return vote, nil
}

// UpdateStatus moves a vote to a new status. Dispute metadata is written
// together with the status so a dispute and its reason land atomically.
func (p *PostgreSQLVoteRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status votingDomain.Status,
	disputeReason, disputeSubmittedBy string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE votes
			  SET status = $2, dispute_reason = $3, dispute_submitted_by = $4, updated_at = $5
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id, status,
		nullIfEmpty(disputeReason), nullIfEmpty(disputeSubmittedBy), now)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vote status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return votingDomain.ErrVoteNotFound
	}

	return nil
}

// AddAuditEntry appends one row to the per-vote trail.
func (p *PostgreSQLVoteRepository) AddAuditEntry(ctx context.Context, entry *votingDomain.VoteAuditEntry) error {
	querier := database.GetTx(ctx, p.db)

	var detail any
	if entry.Detail != nil {
		detailJSON, err := json.Marshal(entry.Detail)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal vote audit detail")
		}
		detail = detailJSON
	}

	query := `INSERT INTO vote_audit_trail (id, vote_id, action, actor, detail, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(ctx, query, entry.ID, entry.VoteID, entry.Action, entry.Actor, detail, entry.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to add vote audit entry")
	}

	return nil
}

// ListAuditEntries returns the vote's trail, oldest first.
func (p *PostgreSQLVoteRepository) ListAuditEntries(ctx context.Context, voteID uuid.UUID) ([]*votingDomain.VoteAuditEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, vote_id, action, actor, detail, created_at
			  FROM vote_audit_trail
			  WHERE vote_id = $1
			  ORDER BY id`

	rows, err := querier.QueryContext(ctx, query, voteID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vote audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*votingDomain.VoteAuditEntry, 0)
	for rows.Next() {
		var entry votingDomain.VoteAuditEntry
		var detail sql.NullString
		if err := rows.Scan(&entry.ID, &entry.VoteID, &entry.Action, &entry.Actor, &detail, &entry.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vote audit entry")
		}
		if detail.Valid {
			if err := json.Unmarshal([]byte(detail.String), &entry.Detail); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal vote audit detail")
			}
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate vote audit entries")
	}

	return entries, nil
}

// TallyForElection aggregates provisional per-candidate counts. Disputed and
// invalid ballots are excluded; cast, verified and counted ones all count,
// the tally is provisional by definition.
func (p *PostgreSQLVoteRepository) TallyForElection(
	ctx context.Context,
	electionID uuid.UUID,
) ([]electionDomain.ProvisionalTally, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT position_id, candidate_id, COUNT(*)
			  FROM votes
			  WHERE election_id = $1 AND status IN ('cast', 'verified', 'counted')
			  GROUP BY position_id, candidate_id
			  ORDER BY position_id, candidate_id`

	rows, err := querier.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to tally votes")
	}
	defer func() {
		_ = rows.Close()
	}()

	tallies := make([]electionDomain.ProvisionalTally, 0)
	for rows.Next() {
		var tally electionDomain.ProvisionalTally
		if err := rows.Scan(&tally.PositionID, &tally.CandidateID, &tally.Votes); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan tally row")
		}
		tallies = append(tallies, tally)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate tally rows")
	}

	return tallies, nil
}

func scanVote(row *sql.Row) (*votingDomain.Vote, error) {
	var vote votingDomain.Vote
	var disputeReason, disputeSubmittedBy sql.NullString

	err := row.Scan(
		&vote.ID,
		&vote.ElectionID,
		&vote.PositionID,
		&vote.CandidateID,
		&vote.VoterID,
		&vote.SecretCodeID,
		&vote.GrantID,
		&vote.SessionToken,
		&vote.ContentHash,
		&vote.Status,
		&disputeReason,
		&disputeSubmittedBy,
		&vote.CreatedAt,
		&vote.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	vote.DisputeReason = disputeReason.String
	vote.DisputeSubmittedBy = disputeSubmittedBy.String

	return &vote, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// violatesConstraint checks whether the error names a specific constraint.
func violatesConstraint(err error, constraint string) bool {
	return err != nil && strings.Contains(err.Error(), constraint)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
