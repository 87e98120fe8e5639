package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	electionDomain "github.com/openballot/openballot/internal/election/domain"
	"github.com/openballot/openballot/internal/testutil"
)

func newTestElection(status electionDomain.Status) *electionDomain.Election {
	now := time.Now().UTC().Truncate(time.Microsecond)
	base := now.AddDate(0, 0, 1)
	return &electionDomain.Election{
		ID:                   uuid.Must(uuid.NewV7()),
		Name:                 "test election",
		Status:               status,
		CurrentPhase:         electionDomain.PhaseRegistration,
		RegistrationStartsAt: base,
		NominationStartsAt:   base.AddDate(0, 0, 7),
		CampaignStartsAt:     base.AddDate(0, 0, 14),
		VotingStartsAt:       base.AddDate(0, 0, 21),
		VotingEndsAt:         base.AddDate(0, 0, 23),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func TestPostgreSQLElectionRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLElectionRepository(db)
	ctx := context.Background()

	election := newTestElection(electionDomain.StatusScheduled)
	require.NoError(t, repo.Create(ctx, election))

	got, err := repo.GetByID(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, election.Name, got.Name)
	assert.Equal(t, electionDomain.StatusScheduled, got.Status)
	assert.Equal(t, electionDomain.PhaseRegistration, got.CurrentPhase)
	assert.False(t, got.ResultsDispatched)
	assert.WithinDuration(t, election.VotingEndsAt, got.VotingEndsAt, time.Second)

	_, err = repo.GetByID(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, electionDomain.ErrElectionNotFound)
}

func TestPostgreSQLElectionRepository_ListNonTerminal(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLElectionRepository(db)
	ctx := context.Background()

	scheduled := newTestElection(electionDomain.StatusScheduled)
	active := newTestElection(electionDomain.StatusActive)
	completed := newTestElection(electionDomain.StatusCompleted)
	cancelled := newTestElection(electionDomain.StatusCancelled)
	draft := newTestElection(electionDomain.StatusDraft)

	for _, e := range []*electionDomain.Election{scheduled, active, completed, cancelled, draft} {
		require.NoError(t, repo.Create(ctx, e))
	}

	elections, err := repo.ListNonTerminal(ctx)
	require.NoError(t, err)
	require.Len(t, elections, 2)
	assert.Equal(t, scheduled.ID, elections[0].ID)
	assert.Equal(t, active.ID, elections[1].ID)
}

func TestPostgreSQLElectionRepository_UpdatePhase(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLElectionRepository(db)
	ctx := context.Background()

	election := newTestElection(electionDomain.StatusActive)
	require.NoError(t, repo.Create(ctx, election))

	now := time.Now().UTC()
	err := repo.UpdatePhase(ctx, election.ID, electionDomain.PhaseCompleted, electionDomain.StatusCompleted, true, now)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, election.ID)
	require.NoError(t, err)
	assert.Equal(t, electionDomain.PhaseCompleted, got.CurrentPhase)
	assert.Equal(t, electionDomain.StatusCompleted, got.Status)
	assert.True(t, got.ResultsDispatched)

	err = repo.UpdatePhase(ctx, uuid.Must(uuid.NewV7()), electionDomain.PhaseVoting, electionDomain.StatusActive, false, now)
	assert.ErrorIs(t, err, electionDomain.ErrElectionNotFound)
}

func TestPostgreSQLElectionRepository_PositionsAndCandidates(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLElectionRepository(db)
	ctx := context.Background()

	election := newTestElection(electionDomain.StatusScheduled)
	require.NoError(t, repo.Create(ctx, election))

	position := &electionDomain.Position{
		ID:         uuid.Must(uuid.NewV7()),
		ElectionID: election.ID,
		Name:       "president",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreatePosition(ctx, position))

	candidate := &electionDomain.Candidate{
		ID:         uuid.Must(uuid.NewV7()),
		PositionID: position.ID,
		Name:       "jordan doe",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.CreateCandidate(ctx, candidate))

	gotPosition, err := repo.GetPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.Equal(t, election.ID, gotPosition.ElectionID)

	gotCandidate, err := repo.GetCandidate(ctx, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, position.ID, gotCandidate.PositionID)

	_, err = repo.GetPosition(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, electionDomain.ErrPositionNotFound)

	_, err = repo.GetCandidate(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, electionDomain.ErrCandidateNotFound)
}
