package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
	apperrors "github.com/openballot/openballot/internal/errors"
	secretcodeDomain "github.com/openballot/openballot/internal/secretcode/domain"
	votingDomain "github.com/openballot/openballot/internal/voting/domain"
)

type voteUseCase struct {
	repo          VoteRepository
	authenticator Authenticator
	eligibility   EligibilityChecker
	ballots       BallotValidator
	audit         AuditRecorder
	observer      SecurityObserver
	clock         clock.Clock
	logger        *slog.Logger
}

// NewVoteUseCase creates the vote recorder with its collaborators.
func NewVoteUseCase(
	repo VoteRepository,
	authenticator Authenticator,
	eligibility EligibilityChecker,
	ballots BallotValidator,
	audit AuditRecorder,
	observer SecurityObserver,
	clk clock.Clock,
	logger *slog.Logger,
) VoteUseCase {
	return &voteUseCase{
		repo:          repo,
		authenticator: authenticator,
		eligibility:   eligibility,
		ballots:       ballots,
		audit:         audit,
		observer:      observer,
		clock:         clk,
		logger:        logger,
	}
}

// Cast runs the full submission sequence. The ordering matters: the secret
// code is validated first (it carries the lockout accounting), eligibility
// second, ballot target third, and only then does the insert run under the
// database uniqueness constraints. MarkConsumed runs strictly after the
// insert so a rejected ballot never consumes the code.
func (v *voteUseCase) Cast(
	ctx context.Context,
	input *CastInput,
	meta auditDomain.RequestMeta,
) (*votingDomain.Vote, error) {
	v.observer.ObserveRequest(ctx, input.VoterID, meta)

	auth, err := v.authenticator.Validate(ctx, input.VoterID, input.ElectionID, input.PositionID, input.SecretCode, meta)
	if err != nil {
		if apperrors.Is(err, secretcodeDomain.ErrInvalidSecretCode) {
			v.observer.RecordAuthFailure(ctx, input.VoterID, meta)
		}
		v.auditCast(ctx, input, meta, "secret_code_rejected")
		return nil, err
	}

	clearance, err := v.eligibility.Check(ctx, input.VoterID, input.ElectionID, input.PositionID, meta)
	if err != nil {
		v.auditCast(ctx, input, meta, "not_eligible")
		return nil, err
	}

	if err := v.ballots.ValidateBallotTarget(ctx, input.ElectionID, input.PositionID, input.CandidateID); err != nil {
		v.auditCast(ctx, input, meta, "invalid_ballot_target")
		return nil, err
	}

	nonce, err := votingDomain.NewNonce()
	if err != nil {
		return nil, err
	}

	now := v.clock.Now()
	vote := &votingDomain.Vote{
		ID:           uuid.Must(uuid.NewV7()),
		ElectionID:   input.ElectionID,
		PositionID:   input.PositionID,
		CandidateID:  input.CandidateID,
		VoterID:      input.VoterID,
		SecretCodeID: auth.SecretCodeID(),
		GrantID:      clearance.GrantID(),
		SessionToken: uuid.Must(uuid.NewV7()).String(),
		ContentHash: votingDomain.ComputeContentHash(
			input.ElectionID, input.PositionID, input.CandidateID, input.VoterID, nonce,
		),
		Status:    votingDomain.StatusCast,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := v.repo.Create(ctx, vote); err != nil {
		switch {
		case apperrors.Is(err, votingDomain.ErrDuplicateVote):
			v.auditCast(ctx, input, meta, "duplicate_vote")
		case apperrors.Is(err, votingDomain.ErrDuplicateBallot):
			v.auditCast(ctx, input, meta, "duplicate_ballot")
		}
		return nil, err
	}

	// The vote is durable at this point; consumption and trail failures are
	// logged, not surfaced, so the voter does not retry a persisted ballot.
	if err := v.authenticator.MarkConsumed(ctx, auth, input.CandidateID); err != nil {
		v.logger.Error("failed to mark secret code position consumed",
			slog.String("vote_id", vote.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	v.appendTrail(ctx, vote.ID, "vote_cast", input.VoterID.String(), map[string]any{
		"election_id": input.ElectionID.String(),
		"position_id": input.PositionID.String(),
	})

	v.audit.Record(ctx, auditUseCase.RecordInput{
		ActorID:      input.VoterID,
		Action:       auditDomain.ActionVoteCast,
		ResourceType: "vote",
		ResourceID:   vote.ID.String(),
		Success:      true,
		Detail: map[string]any{
			"election_id": input.ElectionID.String(),
			"position_id": input.PositionID.String(),
		},
		RequestMeta: meta,
	})

	return vote, nil
}

// Get retrieves a vote by ID.
func (v *voteUseCase) Get(ctx context.Context, id uuid.UUID) (*votingDomain.Vote, error) {
	vote, err := v.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get vote")
	}
	return vote, nil
}

// Verify moves a cast vote to verified.
func (v *voteUseCase) Verify(ctx context.Context, id uuid.UUID, actor string) (*votingDomain.Vote, error) {
	return v.transition(ctx, id, votingDomain.StatusVerified, actor, auditDomain.ActionVoteVerify, nil)
}

// Count moves a verified vote to counted.
func (v *voteUseCase) Count(ctx context.Context, id uuid.UUID, actor string) (*votingDomain.Vote, error) {
	return v.transition(ctx, id, votingDomain.StatusCounted, actor, auditDomain.ActionVoteCount, nil)
}

// Dispute flags a vote. The reason is mandatory: a dispute without one
// cannot be resolved meaningfully.
func (v *voteUseCase) Dispute(ctx context.Context, id uuid.UUID, reason, submittedBy string) (*votingDomain.Vote, error) {
	if reason == "" {
		return nil, fmt.Errorf("dispute reason is required: %w", apperrors.ErrInvalidInput)
	}

	return v.transition(ctx, id, votingDomain.StatusDisputed, submittedBy, auditDomain.ActionVoteDispute,
		&disputeMeta{reason: reason, submittedBy: submittedBy})
}

// ResolveDispute closes a dispute either by counting or invalidating the
// ballot. Only disputed votes can be resolved.
func (v *voteUseCase) ResolveDispute(ctx context.Context, id uuid.UUID, countBallot bool, actor string) (*votingDomain.Vote, error) {
	vote, err := v.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get vote")
	}
	if vote.Status != votingDomain.StatusDisputed {
		return nil, votingDomain.ErrInvalidTransition
	}

	target := votingDomain.StatusCounted
	if !countBallot {
		target = votingDomain.StatusInvalid
	}

	return v.transition(ctx, id, target, actor, auditDomain.ActionVoteResolve, nil)
}

// Invalidate permanently excludes a vote from tallies.
func (v *voteUseCase) Invalidate(ctx context.Context, id uuid.UUID, reason, actor string) (*votingDomain.Vote, error) {
	var meta *disputeMeta
	if reason != "" {
		meta = &disputeMeta{reason: reason, submittedBy: actor}
	}
	return v.transition(ctx, id, votingDomain.StatusInvalid, actor, auditDomain.ActionVoteInvalidate, meta)
}

// ListAuditTrail returns the vote's per-mutation trail.
func (v *voteUseCase) ListAuditTrail(ctx context.Context, voteID uuid.UUID) ([]*votingDomain.VoteAuditEntry, error) {
	if _, err := v.repo.GetByID(ctx, voteID); err != nil {
		return nil, apperrors.Wrap(err, "failed to get vote")
	}

	entries, err := v.repo.ListAuditEntries(ctx, voteID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vote audit trail")
	}
	return entries, nil
}

type disputeMeta struct {
	reason      string
	submittedBy string
}

// transition applies one status change: no-op and reachability checks, the
// atomic update, the per-vote trail row and the central audit entry.
func (v *voteUseCase) transition(
	ctx context.Context,
	id uuid.UUID,
	target votingDomain.Status,
	actor string,
	action auditDomain.Action,
	dispute *disputeMeta,
) (*votingDomain.Vote, error) {
	vote, err := v.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get vote")
	}

	if vote.Status == target {
		return nil, votingDomain.ErrNoOpTransition
	}
	if !votingDomain.CanTransition(vote.Status, target) {
		return nil, votingDomain.ErrInvalidTransition
	}

	reason := vote.DisputeReason
	submittedBy := vote.DisputeSubmittedBy
	if dispute != nil {
		reason = dispute.reason
		submittedBy = dispute.submittedBy
	}

	now := v.clock.Now()
	if err := v.repo.UpdateStatus(ctx, id, target, reason, submittedBy, now); err != nil {
		return nil, apperrors.Wrap(err, "failed to update vote status")
	}

	detail := map[string]any{
		"from": string(vote.Status),
		"to":   string(target),
	}
	if dispute != nil {
		detail["reason"] = dispute.reason
	}
	v.appendTrail(ctx, id, string(action), actor, detail)

	v.audit.Record(ctx, auditUseCase.RecordInput{
		ActorID:      uuid.Nil,
		Action:       action,
		ResourceType: "vote",
		ResourceID:   id.String(),
		Success:      true,
		Detail:       detail,
	})

	from := vote.Status
	vote.Status = target
	vote.DisputeReason = reason
	vote.DisputeSubmittedBy = submittedBy
	vote.UpdatedAt = now

	v.logger.Info("vote status changed",
		slog.String("vote_id", id.String()),
		slog.String("from", string(from)),
		slog.String("to", string(target)),
	)

	return vote, nil
}

// appendTrail writes one per-vote trail row, logging failures instead of
// surfacing them: the primary mutation already succeeded.
func (v *voteUseCase) appendTrail(ctx context.Context, voteID uuid.UUID, action, actor string, detail map[string]any) {
	entry := &votingDomain.VoteAuditEntry{
		ID:        uuid.Must(uuid.NewV7()),
		VoteID:    voteID,
		Action:    action,
		Actor:     actor,
		Detail:    detail,
		CreatedAt: v.clock.Now(),
	}
	if err := v.repo.AddAuditEntry(ctx, entry); err != nil {
		v.logger.Error("failed to append vote audit entry",
			slog.String("vote_id", voteID.String()),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// auditCast records one failed cast attempt in the central audit trail.
func (v *voteUseCase) auditCast(ctx context.Context, input *CastInput, meta auditDomain.RequestMeta, reason string) {
	v.audit.Record(ctx, auditUseCase.RecordInput{
		ActorID:      input.VoterID,
		Action:       auditDomain.ActionVoteCast,
		ResourceType: "vote",
		ResourceID:   input.PositionID.String(),
		Success:      false,
		Detail: map[string]any{
			"election_id": input.ElectionID.String(),
			"position_id": input.PositionID.String(),
			"reason":      reason,
		},
		RequestMeta: meta,
	})
}
