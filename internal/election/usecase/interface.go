// Package usecase implements election lifecycle management and the phase
// reconciliation the scheduler drives.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	electionDomain "github.com/openballot/openballot/internal/election/domain"
	"github.com/openballot/openballot/internal/notification"
)

// ElectionRepository defines persistence operations for elections, positions
// and candidates. Implementations must support transaction-aware operations
// via context propagation.
type ElectionRepository interface {
	// Create stores a new election.
	Create(ctx context.Context, election *electionDomain.Election) error

	// GetByID retrieves one election. Returns ErrElectionNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*electionDomain.Election, error)

	// ListNonTerminal returns elections still subject to reconciliation.
	ListNonTerminal(ctx context.Context) ([]*electionDomain.Election, error)

	// UpdatePhase persists phase, status and the one-shot results flag.
	UpdatePhase(ctx context.Context, id uuid.UUID, phase electionDomain.Phase, status electionDomain.Status, resultsDispatched bool, now time.Time) error

	// CreatePosition stores a ballot position.
	CreatePosition(ctx context.Context, position *electionDomain.Position) error

	// CreateCandidate stores a candidate.
	CreateCandidate(ctx context.Context, candidate *electionDomain.Candidate) error

	// GetPosition retrieves one position. Returns ErrPositionNotFound if absent.
	GetPosition(ctx context.Context, id uuid.UUID) (*electionDomain.Position, error)

	// GetCandidate retrieves one candidate. Returns ErrCandidateNotFound if absent.
	GetCandidate(ctx context.Context, id uuid.UUID) (*electionDomain.Candidate, error)
}

// TallyProvider computes provisional per-candidate counts at results entry.
// The vote recorder's repository implements it.
type TallyProvider interface {
	TallyForElection(ctx context.Context, electionID uuid.UUID) ([]electionDomain.ProvisionalTally, error)
}

// ResultsDispatcher publishes provisional results notices.
type ResultsDispatcher interface {
	Dispatch(ctx context.Context, recipient string, template notification.Template, data map[string]any) error
}

// AuditRecorder is the slice of the audit engine this feature needs.
type AuditRecorder interface {
	Record(ctx context.Context, input auditUseCase.RecordInput) *auditDomain.AuditLog
}

// CreateElectionInput carries the fields for a new election.
type CreateElectionInput struct {
	Name                 string
	RegistrationStartsAt time.Time
	NominationStartsAt   time.Time
	CampaignStartsAt     time.Time
	VotingStartsAt       time.Time
	VotingEndsAt         time.Time
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Examined    int
	Transitions int
	Dispatches  int
	Failures    int
}

// ElectionUseCase defines election lifecycle operations.
type ElectionUseCase interface {
	// CreateElection validates boundary ordering and stores the election in
	// the scheduled status with the phase current for its boundaries.
	CreateElection(ctx context.Context, input *CreateElectionInput) (*electionDomain.Election, error)

	// AddPosition registers a ballot position on an election.
	AddPosition(ctx context.Context, electionID uuid.UUID, name string) (*electionDomain.Position, error)

	// AddCandidate registers a candidate for a position.
	AddCandidate(ctx context.Context, positionID uuid.UUID, name string) (*electionDomain.Candidate, error)

	// ValidateBallotTarget confirms the candidate runs for the position and
	// the position belongs to the election. Returns ErrInvalidCandidate on
	// any mismatch.
	ValidateBallotTarget(ctx context.Context, electionID, positionID, candidateID uuid.UUID) error

	// Reconcile drives every non-terminal election toward the phase its
	// boundaries dictate at the instant. Idempotent: an election already in
	// its target phase is untouched. Per-election failures are isolated.
	// First entry into results publishes provisional tallies exactly once.
	Reconcile(ctx context.Context, now time.Time) (*ReconcileReport, error)
}
