package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	"github.com/openballot/openballot/internal/metrics"
	votingDomain "github.com/openballot/openballot/internal/voting/domain"
)

// voteUseCaseWithMetrics decorates VoteUseCase with metrics instrumentation.
type voteUseCaseWithMetrics struct {
	next    VoteUseCase
	metrics metrics.BusinessMetrics
}

// NewVoteUseCaseWithMetrics wraps a VoteUseCase with metrics recording.
func NewVoteUseCaseWithMetrics(useCase VoteUseCase, m metrics.BusinessMetrics) VoteUseCase {
	return &voteUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (v *voteUseCaseWithMetrics) instrument(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}
	v.metrics.RecordOperation(ctx, "voting", operation, status)
	v.metrics.RecordDuration(ctx, "voting", operation, time.Since(start), status)
}

func (v *voteUseCaseWithMetrics) Cast(
	ctx context.Context,
	input *CastInput,
	meta auditDomain.RequestMeta,
) (*votingDomain.Vote, error) {
	start := time.Now()
	vote, err := v.next.Cast(ctx, input, meta)
	v.instrument(ctx, "vote_cast", start, err)
	return vote, err
}

func (v *voteUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*votingDomain.Vote, error) {
	return v.next.Get(ctx, id)
}

func (v *voteUseCaseWithMetrics) Verify(ctx context.Context, id uuid.UUID, actor string) (*votingDomain.Vote, error) {
	start := time.Now()
	vote, err := v.next.Verify(ctx, id, actor)
	v.instrument(ctx, "vote_verify", start, err)
	return vote, err
}

func (v *voteUseCaseWithMetrics) Count(ctx context.Context, id uuid.UUID, actor string) (*votingDomain.Vote, error) {
	start := time.Now()
	vote, err := v.next.Count(ctx, id, actor)
	v.instrument(ctx, "vote_count", start, err)
	return vote, err
}

func (v *voteUseCaseWithMetrics) Dispute(ctx context.Context, id uuid.UUID, reason, submittedBy string) (*votingDomain.Vote, error) {
	start := time.Now()
	vote, err := v.next.Dispute(ctx, id, reason, submittedBy)
	v.instrument(ctx, "vote_dispute", start, err)
	return vote, err
}

func (v *voteUseCaseWithMetrics) ResolveDispute(ctx context.Context, id uuid.UUID, countBallot bool, actor string) (*votingDomain.Vote, error) {
	start := time.Now()
	vote, err := v.next.ResolveDispute(ctx, id, countBallot, actor)
	v.instrument(ctx, "vote_dispute_resolve", start, err)
	return vote, err
}

func (v *voteUseCaseWithMetrics) Invalidate(ctx context.Context, id uuid.UUID, reason, actor string) (*votingDomain.Vote, error) {
	start := time.Now()
	vote, err := v.next.Invalidate(ctx, id, reason, actor)
	v.instrument(ctx, "vote_invalidate", start, err)
	return vote, err
}

func (v *voteUseCaseWithMetrics) ListAuditTrail(ctx context.Context, voteID uuid.UUID) ([]*votingDomain.VoteAuditEntry, error) {
	return v.next.ListAuditTrail(ctx, voteID)
}
