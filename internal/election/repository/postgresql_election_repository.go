// Package repository implements election, position and candidate persistence
// for PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openballot/openballot/internal/database"
	electionDomain "github.com/openballot/openballot/internal/election/domain"
	apperrors "github.com/openballot/openballot/internal/errors"
)

// PostgreSQLElectionRepository implements election persistence for PostgreSQL.
type PostgreSQLElectionRepository struct {
	db *sql.DB
}

// NewPostgreSQLElectionRepository creates a new PostgreSQL election repository.
func NewPostgreSQLElectionRepository(db *sql.DB) *PostgreSQLElectionRepository {
	return &PostgreSQLElectionRepository{db: db}
}

const electionColumns = `id, name, status, current_phase, registration_starts_at, nomination_starts_at,
	campaign_starts_at, voting_starts_at, voting_ends_at, results_dispatched, created_at, updated_at`

// Create inserts a new election.
func (p *PostgreSQLElectionRepository) Create(ctx context.Context, election *electionDomain.Election) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO elections (` + electionColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		election.ID,
		election.Name,
		string(election.Status),
		string(election.CurrentPhase),
		election.RegistrationStartsAt,
		election.NominationStartsAt,
		election.CampaignStartsAt,
		election.VotingStartsAt,
		election.VotingEndsAt,
		election.ResultsDispatched,
		election.CreatedAt,
		election.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create election")
	}

	return nil
}

// GetByID retrieves one election.
func (p *PostgreSQLElectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*electionDomain.Election, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + electionColumns + ` FROM elections WHERE id = $1`

	election, err := scanElection(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, electionDomain.ErrElectionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get election")
	}

	return election, nil
}

// ListNonTerminal returns elections the scheduler still reconciles, oldest
// first. Draft and cancelled elections are excluded: drafts are not yet
// published and cancellations are terminal.
func (p *PostgreSQLElectionRepository) ListNonTerminal(ctx context.Context) ([]*electionDomain.Election, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + electionColumns + ` FROM elections
			  WHERE status IN ('scheduled', 'active')
			  ORDER BY id`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list elections")
	}
	defer func() {
		_ = rows.Close()
	}()

	elections := make([]*electionDomain.Election, 0)
	for rows.Next() {
		election, err := scanElection(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan election")
		}
		elections = append(elections, election)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate elections")
	}

	return elections, nil
}

// UpdatePhase persists a reconciliation outcome: phase, status and the
// one-shot results flag in a single update.
func (p *PostgreSQLElectionRepository) UpdatePhase(
	ctx context.Context,
	id uuid.UUID,
	phase electionDomain.Phase,
	status electionDomain.Status,
	resultsDispatched bool,
	now time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE elections
			  SET current_phase = $2, status = $3, results_dispatched = $4, updated_at = $5
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, id, string(phase), string(status), resultsDispatched, now)
	if err != nil {
		return apperrors.Wrap(err, "failed to update election phase")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check election phase update")
	}
	if affected == 0 {
		return electionDomain.ErrElectionNotFound
	}

	return nil
}

// CreatePosition inserts a ballot position.
func (p *PostgreSQLElectionRepository) CreatePosition(ctx context.Context, position *electionDomain.Position) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO positions (id, election_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, position.ID, position.ElectionID, position.Name, position.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create position")
	}

	return nil
}

// CreateCandidate inserts a candidate.
func (p *PostgreSQLElectionRepository) CreateCandidate(ctx context.Context, candidate *electionDomain.Candidate) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO candidates (id, position_id, name, created_at) VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, candidate.ID, candidate.PositionID, candidate.Name, candidate.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create candidate")
	}

	return nil
}

// GetPosition retrieves one position.
func (p *PostgreSQLElectionRepository) GetPosition(ctx context.Context, id uuid.UUID) (*electionDomain.Position, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, election_id, name, created_at FROM positions WHERE id = $1`

	var position electionDomain.Position
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&position.ID,
		&position.ElectionID,
		&position.Name,
		&position.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, electionDomain.ErrPositionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get position")
	}

	return &position, nil
}

// GetCandidate retrieves one candidate.
func (p *PostgreSQLElectionRepository) GetCandidate(ctx context.Context, id uuid.UUID) (*electionDomain.Candidate, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, position_id, name, created_at FROM candidates WHERE id = $1`

	var candidate electionDomain.Candidate
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&candidate.ID,
		&candidate.PositionID,
		&candidate.Name,
		&candidate.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, electionDomain.ErrCandidateNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get candidate")
	}

	return &candidate, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElection(row rowScanner) (*electionDomain.Election, error) {
	var election electionDomain.Election
	var status, phase string

	err := row.Scan(
		&election.ID,
		&election.Name,
		&status,
		&phase,
		&election.RegistrationStartsAt,
		&election.NominationStartsAt,
		&election.CampaignStartsAt,
		&election.VotingStartsAt,
		&election.VotingEndsAt,
		&election.ResultsDispatched,
		&election.CreatedAt,
		&election.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	election.Status = electionDomain.Status(status)
	election.CurrentPhase = electionDomain.Phase(phase)
	return &election, nil
}
