package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
	electionDomain "github.com/openballot/openballot/internal/election/domain"
	"github.com/openballot/openballot/internal/notification"
)

// reconcileConcurrency bounds the errgroup fan-out per tick.
const reconcileConcurrency = 4

// electionUseCase implements ElectionUseCase.
type electionUseCase struct {
	electionRepo  ElectionRepository
	tallyProvider TallyProvider
	dispatcher    ResultsDispatcher
	auditRecorder AuditRecorder
	clock         clock.Clock
	logger        *slog.Logger
}

// NewElectionUseCase creates a new ElectionUseCase with the provided dependencies.
func NewElectionUseCase(
	electionRepo ElectionRepository,
	tallyProvider TallyProvider,
	dispatcher ResultsDispatcher,
	auditRecorder AuditRecorder,
	clk clock.Clock,
	logger *slog.Logger,
) ElectionUseCase {
	return &electionUseCase{
		electionRepo:  electionRepo,
		tallyProvider: tallyProvider,
		dispatcher:    dispatcher,
		auditRecorder: auditRecorder,
		clock:         clk,
		logger:        logger,
	}
}

// CreateElection validates boundary ordering and stores the election.
func (e *electionUseCase) CreateElection(
	ctx context.Context,
	input *CreateElectionInput,
) (*electionDomain.Election, error) {
	boundaries := []time.Time{
		input.RegistrationStartsAt,
		input.NominationStartsAt,
		input.CampaignStartsAt,
		input.VotingStartsAt,
		input.VotingEndsAt,
	}
	for i := 1; i < len(boundaries); i++ {
		if !boundaries[i-1].Before(boundaries[i]) {
			return nil, electionDomain.ErrInvalidBoundaries
		}
	}

	now := e.clock.Now()
	election := &electionDomain.Election{
		ID:                   uuid.Must(uuid.NewV7()),
		Name:                 input.Name,
		Status:               electionDomain.StatusScheduled,
		RegistrationStartsAt: input.RegistrationStartsAt.UTC(),
		NominationStartsAt:   input.NominationStartsAt.UTC(),
		CampaignStartsAt:     input.CampaignStartsAt.UTC(),
		VotingStartsAt:       input.VotingStartsAt.UTC(),
		VotingEndsAt:         input.VotingEndsAt.UTC(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	election.CurrentPhase = electionDomain.PhaseFor(election, now)

	if err := e.electionRepo.Create(ctx, election); err != nil {
		return nil, err
	}

	return election, nil
}

// AddPosition registers a ballot position after confirming the election exists.
func (e *electionUseCase) AddPosition(
	ctx context.Context,
	electionID uuid.UUID,
	name string,
) (*electionDomain.Position, error) {
	if _, err := e.electionRepo.GetByID(ctx, electionID); err != nil {
		return nil, err
	}

	position := &electionDomain.Position{
		ID:         uuid.Must(uuid.NewV7()),
		ElectionID: electionID,
		Name:       name,
		CreatedAt:  e.clock.Now(),
	}

	if err := e.electionRepo.CreatePosition(ctx, position); err != nil {
		return nil, err
	}

	return position, nil
}

// AddCandidate registers a candidate after confirming the position exists.
func (e *electionUseCase) AddCandidate(
	ctx context.Context,
	positionID uuid.UUID,
	name string,
) (*electionDomain.Candidate, error) {
	if _, err := e.electionRepo.GetPosition(ctx, positionID); err != nil {
		return nil, err
	}

	candidate := &electionDomain.Candidate{
		ID:         uuid.Must(uuid.NewV7()),
		PositionID: positionID,
		Name:       name,
		CreatedAt:  e.clock.Now(),
	}

	if err := e.electionRepo.CreateCandidate(ctx, candidate); err != nil {
		return nil, err
	}

	return candidate, nil
}

// ValidateBallotTarget confirms the (election, position, candidate) chain.
func (e *electionUseCase) ValidateBallotTarget(
	ctx context.Context,
	electionID, positionID, candidateID uuid.UUID,
) error {
	position, err := e.electionRepo.GetPosition(ctx, positionID)
	if err != nil {
		return electionDomain.ErrInvalidCandidate
	}
	if position.ElectionID != electionID {
		return electionDomain.ErrInvalidCandidate
	}

	candidate, err := e.electionRepo.GetCandidate(ctx, candidateID)
	if err != nil {
		return electionDomain.ErrInvalidCandidate
	}
	if candidate.PositionID != positionID {
		return electionDomain.ErrInvalidCandidate
	}

	return nil
}

// Reconcile fans out over non-terminal elections. Each election is handled
// independently: one failure never blocks the rest of the pass.
func (e *electionUseCase) Reconcile(ctx context.Context, now time.Time) (*ReconcileReport, error) {
	elections, err := e.electionRepo.ListNonTerminal(ctx)
	if err != nil {
		return nil, err
	}

	var transitions, dispatches, failures atomic.Int64

	g := &errgroup.Group{}
	g.SetLimit(reconcileConcurrency)

	for _, election := range elections {
		g.Go(func() error {
			changed, dispatched, err := e.reconcileOne(ctx, election, now)
			if err != nil {
				failures.Add(1)
				e.logger.Error("election reconciliation failed",
					slog.String("election_id", election.ID.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			if changed {
				transitions.Add(1)
			}
			if dispatched {
				dispatches.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return &ReconcileReport{
		Examined:    len(elections),
		Transitions: int(transitions.Load()),
		Dispatches:  int(dispatches.Load()),
		Failures:    int(failures.Load()),
	}, nil
}

// reconcileOne drives a single election toward its target phase. No-op when
// the election already matches; otherwise one update carries phase, status
// and, on results entry, the dispatched flag. The election only completes
// once the provisional results went out: until then it stays active in the
// results phase and every tick retries the dispatch.
func (e *electionUseCase) reconcileOne(
	ctx context.Context,
	election *electionDomain.Election,
	now time.Time,
) (changed bool, dispatched bool, err error) {
	targetPhase := electionDomain.PhaseFor(election, now)

	if targetPhase == electionDomain.PhaseResults && !election.ResultsDispatched {
		dispatched = e.dispatchResults(ctx, election)
	}

	resultsDispatched := election.ResultsDispatched || dispatched
	if targetPhase == electionDomain.PhaseResults && resultsDispatched {
		targetPhase = electionDomain.PhaseCompleted
	}
	targetStatus := electionDomain.StatusFor(targetPhase)

	changed = targetPhase != election.CurrentPhase || targetStatus != election.Status
	if !changed && !dispatched {
		return false, false, nil
	}

	err = e.electionRepo.UpdatePhase(ctx, election.ID, targetPhase, targetStatus, resultsDispatched, now)
	if err != nil {
		return false, false, err
	}

	if changed {
		e.auditRecorder.Record(ctx, auditUseCase.RecordInput{
			ActorID:      auditDomain.AnonymousActor,
			Action:       auditDomain.ActionPhaseTransition,
			ResourceType: "election",
			ResourceID:   election.ID.String(),
			Success:      true,
			Detail: map[string]any{
				"from_phase": string(election.CurrentPhase),
				"to_phase":   string(targetPhase),
				"to_status":  string(targetStatus),
			},
		})
	}

	return changed, dispatched, nil
}

// dispatchResults publishes provisional tallies. A failed dispatch leaves the
// one-shot flag clear so the next tick retries.
func (e *electionUseCase) dispatchResults(ctx context.Context, election *electionDomain.Election) bool {
	tallies, err := e.tallyProvider.TallyForElection(ctx, election.ID)
	if err != nil {
		e.logger.Error("failed to compute provisional tallies",
			slog.String("election_id", election.ID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}

	results := make([]map[string]any, 0, len(tallies))
	for _, tally := range tallies {
		results = append(results, map[string]any{
			"position_id":  tally.PositionID.String(),
			"candidate_id": tally.CandidateID.String(),
			"votes":        tally.Votes,
		})
	}

	err = e.dispatcher.Dispatch(ctx, election.ID.String(), notification.TemplateProvisionalResults, map[string]any{
		"election_id":   election.ID.String(),
		"election_name": election.Name,
		"results":       results,
	})
	if err != nil {
		e.logger.Error("failed to dispatch provisional results",
			slog.String("election_id", election.ID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}

	e.auditRecorder.Record(ctx, auditUseCase.RecordInput{
		ActorID:      auditDomain.AnonymousActor,
		Action:       auditDomain.ActionResultsDispatch,
		ResourceType: "election",
		ResourceID:   election.ID.String(),
		Success:      true,
		Detail: map[string]any{
			"tally_count": len(tallies),
		},
	})

	return true
}
