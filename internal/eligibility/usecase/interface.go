// Package usecase implements eligibility decisions and grant lifecycle
// management.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	eligibilityDomain "github.com/openballot/openballot/internal/eligibility/domain"
)

// EligibilityGrantRepository defines persistence operations for grants.
// Implementations must support transaction-aware operations via context propagation.
type EligibilityGrantRepository interface {
	// Create stores a new grant. Returns ErrGrantExists when the
	// (voter, election) pair already has one.
	Create(ctx context.Context, grant *eligibilityDomain.EligibilityGrant) error

	// GetByVoterAndElection retrieves the grant for a (voter, election) pair.
	// Returns ErrGrantNotFound if absent.
	GetByVoterAndElection(ctx context.Context, voterID, electionID uuid.UUID) (*eligibilityDomain.EligibilityGrant, error)

	// UpdateStatus moves the grant to a new lifecycle status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status eligibilityDomain.Status, now time.Time) error
}

// AuditRecorder is the slice of the audit engine this feature needs.
type AuditRecorder interface {
	Record(ctx context.Context, input auditUseCase.RecordInput) *auditDomain.AuditLog
}

// Clearance proves the eligibility guard approved one (voter, election,
// position) triple. Fields are unexported so no other package can mint a
// meaningful token; the vote recorder requires one alongside the secret code
// authorization.
type Clearance struct {
	grantID    uuid.UUID
	voterID    uuid.UUID
	electionID uuid.UUID
	positionID uuid.UUID
	checkedAt  time.Time
}

// GrantID returns the approving grant's ID.
func (c *Clearance) GrantID() uuid.UUID { return c.grantID }

// VoterID returns the cleared voter.
func (c *Clearance) VoterID() uuid.UUID { return c.voterID }

// ElectionID returns the election the clearance is scoped to.
func (c *Clearance) ElectionID() uuid.UUID { return c.electionID }

// PositionID returns the single position the clearance covers.
func (c *Clearance) PositionID() uuid.UUID { return c.positionID }

// CheckedAt returns when the check ran.
func (c *Clearance) CheckedAt() time.Time { return c.checkedAt }

// EligibilityUseCase defines the guard's operations.
type EligibilityUseCase interface {
	// Check decides whether the voter may vote for the position. A missing
	// grant, an inactive grant and an out-of-scope position all surface as
	// ErrNotEligible. Pure read: nothing is mutated. Every decision is audited
	// with the denial reason in the detail.
	Check(
		ctx context.Context,
		voterID, electionID, positionID uuid.UUID,
		meta auditDomain.RequestMeta,
	) (*Clearance, error)

	// Create registers a new grant for a voter.
	Create(ctx context.Context, voterID, electionID uuid.UUID, positions []uuid.UUID) (*eligibilityDomain.EligibilityGrant, error)

	// Suspend blocks an active grant until reactivation.
	Suspend(ctx context.Context, voterID, electionID uuid.UUID) error

	// Reactivate restores a suspended grant.
	Reactivate(ctx context.Context, voterID, electionID uuid.UUID) error

	// Revoke permanently disables a grant.
	Revoke(ctx context.Context, voterID, electionID uuid.UUID) error
}
