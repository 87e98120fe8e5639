// Package usecase implements the vote recorder: the cast orchestration
// across the authenticator, the eligibility guard and ballot validation,
// plus the post-cast status lifecycle.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	electionDomain "github.com/openballot/openballot/internal/election/domain"
	eligibilityUseCase "github.com/openballot/openballot/internal/eligibility/usecase"
	secretcodeUseCase "github.com/openballot/openballot/internal/secretcode/usecase"
	votingDomain "github.com/openballot/openballot/internal/voting/domain"
)

// VoteRepository defines persistence operations for votes.
// Implementations must support transaction-aware operations via context propagation.
type VoteRepository interface {
	// Create inserts a new vote. Returns ErrDuplicateVote when the voter
	// already holds a ballot for the position and ErrDuplicateBallot on a
	// content hash or session token replay.
	Create(ctx context.Context, vote *votingDomain.Vote) error

	// GetByID retrieves a vote. Returns ErrVoteNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*votingDomain.Vote, error)

	// UpdateStatus moves a vote to a new status together with its dispute
	// metadata.
	UpdateStatus(
		ctx context.Context,
		id uuid.UUID,
		status votingDomain.Status,
		disputeReason, disputeSubmittedBy string,
		now time.Time,
	) error

	// AddAuditEntry appends one row to the per-vote trail.
	AddAuditEntry(ctx context.Context, entry *votingDomain.VoteAuditEntry) error

	// ListAuditEntries returns the vote's trail, oldest first.
	ListAuditEntries(ctx context.Context, voteID uuid.UUID) ([]*votingDomain.VoteAuditEntry, error)

	// TallyForElection aggregates provisional per-candidate counts.
	TallyForElection(ctx context.Context, electionID uuid.UUID) ([]electionDomain.ProvisionalTally, error)
}

// Authenticator is the slice of the secret code authenticator the recorder
// needs: validation before the insert, consumption after it.
type Authenticator interface {
	Validate(
		ctx context.Context,
		voterID, electionID, positionID uuid.UUID,
		submittedCode string,
		meta auditDomain.RequestMeta,
	) (*secretcodeUseCase.Authorization, error)
	MarkConsumed(ctx context.Context, auth *secretcodeUseCase.Authorization, candidateID uuid.UUID) error
}

// EligibilityChecker is the slice of the eligibility guard the recorder needs.
type EligibilityChecker interface {
	Check(
		ctx context.Context,
		voterID, electionID, positionID uuid.UUID,
		meta auditDomain.RequestMeta,
	) (*eligibilityUseCase.Clearance, error)
}

// BallotValidator verifies the (election, position, candidate) chain.
type BallotValidator interface {
	ValidateBallotTarget(ctx context.Context, electionID, positionID, candidateID uuid.UUID) error
}

// AuditRecorder is the slice of the audit engine this feature needs.
type AuditRecorder interface {
	Record(ctx context.Context, input auditUseCase.RecordInput) *auditDomain.AuditLog
}

// SecurityObserver receives advisory per-voter signals. Implementations
// must never fail the request path.
type SecurityObserver interface {
	RecordAuthFailure(ctx context.Context, voterID uuid.UUID, meta auditDomain.RequestMeta)
	ObserveRequest(ctx context.Context, voterID uuid.UUID, meta auditDomain.RequestMeta)
}

// CastInput carries one ballot submission. The session token is not part of
// the input: the recorder mints it when the ballot persists.
type CastInput struct {
	VoterID     uuid.UUID
	ElectionID  uuid.UUID
	PositionID  uuid.UUID
	CandidateID uuid.UUID
	SecretCode  string
}

// VoteUseCase defines the vote recorder's operations.
type VoteUseCase interface {
	// Cast validates the submission end to end and persists the ballot.
	// The secret code is only consumed after the insert succeeds, so a
	// rejected ballot never burns the voter's code for the position.
	Cast(ctx context.Context, input *CastInput, meta auditDomain.RequestMeta) (*votingDomain.Vote, error)

	// Get retrieves a vote by ID.
	Get(ctx context.Context, id uuid.UUID) (*votingDomain.Vote, error)

	// Verify moves a cast vote to verified.
	Verify(ctx context.Context, id uuid.UUID, actor string) (*votingDomain.Vote, error)

	// Count moves a verified vote to counted.
	Count(ctx context.Context, id uuid.UUID, actor string) (*votingDomain.Vote, error)

	// Dispute flags a vote, recording the reason and the submitter.
	Dispute(ctx context.Context, id uuid.UUID, reason, submittedBy string) (*votingDomain.Vote, error)

	// ResolveDispute closes a dispute: the ballot is either counted or
	// invalidated.
	ResolveDispute(ctx context.Context, id uuid.UUID, countBallot bool, actor string) (*votingDomain.Vote, error)

	// Invalidate permanently excludes a vote from tallies.
	Invalidate(ctx context.Context, id uuid.UUID, reason, actor string) (*votingDomain.Vote, error)

	// ListAuditTrail returns the vote's per-mutation trail.
	ListAuditTrail(ctx context.Context, voteID uuid.UUID) ([]*votingDomain.VoteAuditEntry, error)
}
