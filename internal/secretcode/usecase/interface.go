// Package usecase implements the secret code validation sequence: lookup,
// lockout, hash comparison, attempt accounting and per-position consumption.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/notification"
	secretcodeDomain "github.com/openballot/openballot/internal/secretcode/domain"
)

// SecretCodeRepository defines persistence operations for secret codes.
// Implementations must support transaction-aware operations via context propagation.
type SecretCodeRepository interface {
	// Create stores a new code. Returns ErrSecretCodeExists when the
	// (voter, election) pair already has one.
	Create(ctx context.Context, secretCode *secretcodeDomain.SecretCode) error

	// GetByVoterAndElection retrieves the code for a (voter, election) pair.
	// Returns ErrSecretCodeNotFound if absent.
	GetByVoterAndElection(ctx context.Context, voterID, electionID uuid.UUID) (*secretcodeDomain.SecretCode, error)

	// IncrementAttempts atomically bumps the attempt counter and returns the
	// new value.
	IncrementAttempts(ctx context.Context, id uuid.UUID, now time.Time) (int, error)

	// Lock sets the lockout deadline.
	Lock(ctx context.Context, id uuid.UUID, until time.Time, now time.Time) error

	// ResetAttempts clears attempts and lockout after a successful validation.
	ResetAttempts(ctx context.Context, id uuid.UUID, now time.Time) error

	// HasConsumedPosition reports whether the code was used for the position.
	HasConsumedPosition(ctx context.Context, secretCodeID, positionID uuid.UUID) (bool, error)

	// AddConsumedPosition appends a consumption record. Returns
	// ErrPositionConsumed on the unique constraint.
	AddConsumedPosition(ctx context.Context, consumed *secretcodeDomain.ConsumedPosition) error

	// ListConsumedPositions returns the positions a code has been used for.
	ListConsumedPositions(ctx context.Context, secretCodeID uuid.UUID) ([]*secretcodeDomain.ConsumedPosition, error)

	// Deactivate turns a code off without deleting it.
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error
}

// AuditRecorder is the slice of the audit engine this feature needs.
type AuditRecorder interface {
	Record(ctx context.Context, input auditUseCase.RecordInput) *auditDomain.AuditLog
}

// LockoutNotifier delivers lockout notices. Delivery failures must not fail
// the validation path.
type LockoutNotifier interface {
	Dispatch(ctx context.Context, recipient string, template notification.Template, data map[string]any) error
}

// Authorization proves a secret code validation succeeded for one position.
// Fields are unexported so no other package can mint a meaningful token; the
// vote recorder requires one before persisting a ballot.
type Authorization struct {
	secretCodeID uuid.UUID
	voterID      uuid.UUID
	electionID   uuid.UUID
	positionID   uuid.UUID
	grantedAt    time.Time
}

// SecretCodeID returns the validated code's ID.
func (a *Authorization) SecretCodeID() uuid.UUID { return a.secretCodeID }

// VoterID returns the voter the authorization was granted to.
func (a *Authorization) VoterID() uuid.UUID { return a.voterID }

// ElectionID returns the election the authorization is scoped to.
func (a *Authorization) ElectionID() uuid.UUID { return a.electionID }

// PositionID returns the single position the authorization covers.
func (a *Authorization) PositionID() uuid.UUID { return a.positionID }

// GrantedAt returns when the validation succeeded.
func (a *Authorization) GrantedAt() time.Time { return a.grantedAt }

// IssueOutput carries the one-time plain code back to issuance tooling.
type IssueOutput struct {
	SecretCodeID uuid.UUID
	PlainCode    string
}

// SecretCodeUseCase defines the authenticator's operations.
type SecretCodeUseCase interface {
	// Validate runs the full validation sequence for one position and mints
	// an Authorization on success. Rejections, in order: unknown or inactive
	// code (ErrInvalidSecretCode), active lockout (ErrCodeLocked), hash
	// mismatch with attempt accounting (ErrInvalidSecretCode), position
	// already consumed (ErrPositionConsumed). Every outcome is audited.
	Validate(
		ctx context.Context,
		voterID, electionID, positionID uuid.UUID,
		submittedCode string,
		meta auditDomain.RequestMeta,
	) (*Authorization, error)

	// MarkConsumed appends the consumed position after the ballot persisted.
	// Called by the vote recorder, never before the vote insert succeeds.
	MarkConsumed(ctx context.Context, auth *Authorization, candidateID uuid.UUID) error

	// Issue creates and stores a new code for a (voter, election) pair and
	// returns the plain code exactly once.
	Issue(ctx context.Context, voterID, electionID uuid.UUID) (*IssueOutput, error)

	// Reissue replaces a lost or compromised code. The old code is
	// deactivated and its consumed positions carry over, so the replacement
	// cannot re-open a position the voter already voted for.
	Reissue(ctx context.Context, voterID, electionID uuid.UUID) (*IssueOutput, error)
}
