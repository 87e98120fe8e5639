package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
	eligibilityDomain "github.com/openballot/openballot/internal/eligibility/domain"
)

// eligibilityUseCase implements EligibilityUseCase.
type eligibilityUseCase struct {
	grantRepo     EligibilityGrantRepository
	auditRecorder AuditRecorder
	clock         clock.Clock
}

// NewEligibilityUseCase creates a new EligibilityUseCase with the provided dependencies.
func NewEligibilityUseCase(
	grantRepo EligibilityGrantRepository,
	auditRecorder AuditRecorder,
	clk clock.Clock,
) EligibilityUseCase {
	return &eligibilityUseCase{
		grantRepo:     grantRepo,
		auditRecorder: auditRecorder,
		clock:         clk,
	}
}

// Check decides eligibility for one position. Pure read.
func (e *eligibilityUseCase) Check(
	ctx context.Context,
	voterID, electionID, positionID uuid.UUID,
	meta auditDomain.RequestMeta,
) (*Clearance, error) {
	grant, err := e.grantRepo.GetByVoterAndElection(ctx, voterID, electionID)
	if err != nil {
		e.auditCheck(ctx, voterID, electionID, positionID, meta, false, "grant_not_found")
		return nil, eligibilityDomain.ErrNotEligible
	}

	if grant.Status != eligibilityDomain.StatusActive && grant.Status != eligibilityDomain.StatusReactivated {
		e.auditCheck(ctx, voterID, electionID, positionID, meta, false, "grant_"+string(grant.Status))
		return nil, eligibilityDomain.ErrNotEligible
	}

	if !grant.Allows(positionID) {
		e.auditCheck(ctx, voterID, electionID, positionID, meta, false, "position_not_granted")
		return nil, eligibilityDomain.ErrNotEligible
	}

	e.auditCheck(ctx, voterID, electionID, positionID, meta, true, "")

	return &Clearance{
		grantID:    grant.ID,
		voterID:    voterID,
		electionID: electionID,
		positionID: positionID,
		checkedAt:  e.clock.Now(),
	}, nil
}

// Create registers a new grant in the active status.
func (e *eligibilityUseCase) Create(
	ctx context.Context,
	voterID, electionID uuid.UUID,
	positions []uuid.UUID,
) (*eligibilityDomain.EligibilityGrant, error) {
	now := e.clock.Now()
	grant := &eligibilityDomain.EligibilityGrant{
		ID:         uuid.Must(uuid.NewV7()),
		VoterID:    voterID,
		ElectionID: electionID,
		Status:     eligibilityDomain.StatusActive,
		Positions:  positions,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := e.grantRepo.Create(ctx, grant); err != nil {
		return nil, err
	}

	return grant, nil
}

// Suspend blocks an active or reactivated grant.
func (e *eligibilityUseCase) Suspend(ctx context.Context, voterID, electionID uuid.UUID) error {
	return e.transition(ctx, voterID, electionID, eligibilityDomain.StatusSuspended,
		eligibilityDomain.StatusActive, eligibilityDomain.StatusReactivated)
}

// Reactivate restores a suspended grant.
func (e *eligibilityUseCase) Reactivate(ctx context.Context, voterID, electionID uuid.UUID) error {
	return e.transition(ctx, voterID, electionID, eligibilityDomain.StatusReactivated,
		eligibilityDomain.StatusSuspended)
}

// Revoke permanently disables any non-revoked grant.
func (e *eligibilityUseCase) Revoke(ctx context.Context, voterID, electionID uuid.UUID) error {
	return e.transition(ctx, voterID, electionID, eligibilityDomain.StatusRevoked,
		eligibilityDomain.StatusActive, eligibilityDomain.StatusReactivated, eligibilityDomain.StatusSuspended)
}

func (e *eligibilityUseCase) transition(
	ctx context.Context,
	voterID, electionID uuid.UUID,
	target eligibilityDomain.Status,
	allowedFrom ...eligibilityDomain.Status,
) error {
	grant, err := e.grantRepo.GetByVoterAndElection(ctx, voterID, electionID)
	if err != nil {
		return err
	}

	allowed := false
	for _, from := range allowedFrom {
		if grant.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return eligibilityDomain.ErrInvalidTransition
	}

	return e.grantRepo.UpdateStatus(ctx, grant.ID, target, e.clock.Now())
}

func (e *eligibilityUseCase) auditCheck(
	ctx context.Context,
	voterID, electionID, positionID uuid.UUID,
	meta auditDomain.RequestMeta,
	success bool,
	reason string,
) {
	detail := map[string]any{
		"election_id": electionID.String(),
		"position_id": positionID.String(),
	}
	if reason != "" {
		detail["reason"] = reason
	}

	e.auditRecorder.Record(ctx, auditUseCase.RecordInput{
		ActorID:      voterID,
		Action:       auditDomain.ActionEligibilityCheck,
		ResourceType: "eligibility_grant",
		Success:      success,
		Detail:       detail,
		RequestMeta:  meta,
	})
}
