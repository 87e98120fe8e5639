package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretcodeDomain "github.com/openballot/openballot/internal/secretcode/domain"
	"github.com/openballot/openballot/internal/testutil"
)

func newTestSecretCode() *secretcodeDomain.SecretCode {
	now := time.Now().UTC()
	return &secretcodeDomain.SecretCode{
		ID:         uuid.Must(uuid.NewV7()),
		VoterID:    uuid.Must(uuid.NewV7()),
		ElectionID: uuid.Must(uuid.NewV7()),
		CodeHash:   "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Attempts:   0,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestPostgreSQLSecretCodeRepository_Create(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)
	ctx := context.Background()

	secretCode := newTestSecretCode()
	require.NoError(t, repo.Create(ctx, secretCode))

	got, err := repo.GetByVoterAndElection(ctx, secretCode.VoterID, secretCode.ElectionID)
	require.NoError(t, err)
	assert.Equal(t, secretCode.ID, got.ID)
	assert.Equal(t, secretCode.CodeHash, got.CodeHash)
	assert.Zero(t, got.Attempts)
	assert.Nil(t, got.LockedUntil)
	assert.True(t, got.IsActive)
}

func TestPostgreSQLSecretCodeRepository_Create_DuplicatePair(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)
	ctx := context.Background()

	secretCode := newTestSecretCode()
	require.NoError(t, repo.Create(ctx, secretCode))

	dup := newTestSecretCode()
	dup.VoterID = secretCode.VoterID
	dup.ElectionID = secretCode.ElectionID

	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, secretcodeDomain.ErrSecretCodeExists)
}

func TestPostgreSQLSecretCodeRepository_GetByVoterAndElection_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)

	_, err := repo.GetByVoterAndElection(context.Background(), uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, secretcodeDomain.ErrSecretCodeNotFound)
}

func TestPostgreSQLSecretCodeRepository_IncrementAttempts(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)
	ctx := context.Background()

	secretCode := newTestSecretCode()
	require.NoError(t, repo.Create(ctx, secretCode))

	now := time.Now().UTC()
	attempts, err := repo.IncrementAttempts(ctx, secretCode.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = repo.IncrementAttempts(ctx, secretCode.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts, err = repo.IncrementAttempts(ctx, secretCode.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	_, err = repo.IncrementAttempts(ctx, uuid.Must(uuid.NewV7()), now)
	assert.ErrorIs(t, err, secretcodeDomain.ErrSecretCodeNotFound)
}

func TestPostgreSQLSecretCodeRepository_LockAndReset(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)
	ctx := context.Background()

	secretCode := newTestSecretCode()
	require.NoError(t, repo.Create(ctx, secretCode))

	now := time.Now().UTC()
	until := now.Add(15 * time.Minute)
	require.NoError(t, repo.Lock(ctx, secretCode.ID, until, now))
	_, err := repo.IncrementAttempts(ctx, secretCode.ID, now)
	require.NoError(t, err)

	got, err := repo.GetByVoterAndElection(ctx, secretCode.VoterID, secretCode.ElectionID)
	require.NoError(t, err)
	require.NotNil(t, got.LockedUntil)
	assert.WithinDuration(t, until, *got.LockedUntil, time.Second)
	assert.True(t, got.Locked(now))
	assert.False(t, got.Locked(until.Add(time.Second)))

	require.NoError(t, repo.ResetAttempts(ctx, secretCode.ID, now))

	got, err = repo.GetByVoterAndElection(ctx, secretCode.VoterID, secretCode.ElectionID)
	require.NoError(t, err)
	assert.Zero(t, got.Attempts)
	assert.Nil(t, got.LockedUntil)
}

func TestPostgreSQLSecretCodeRepository_ConsumedPositions(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)
	ctx := context.Background()

	secretCode := newTestSecretCode()
	require.NoError(t, repo.Create(ctx, secretCode))

	positionID := uuid.Must(uuid.NewV7())

	consumed, err := repo.HasConsumedPosition(ctx, secretCode.ID, positionID)
	require.NoError(t, err)
	assert.False(t, consumed)

	usage := &secretcodeDomain.ConsumedPosition{
		ID:           uuid.Must(uuid.NewV7()),
		SecretCodeID: secretCode.ID,
		PositionID:   positionID,
		CandidateID:  uuid.Must(uuid.NewV7()),
		VotedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.AddConsumedPosition(ctx, usage))

	consumed, err = repo.HasConsumedPosition(ctx, secretCode.ID, positionID)
	require.NoError(t, err)
	assert.True(t, consumed)

	// Same position again is rejected by the unique constraint
	dup := &secretcodeDomain.ConsumedPosition{
		ID:           uuid.Must(uuid.NewV7()),
		SecretCodeID: secretCode.ID,
		PositionID:   positionID,
		CandidateID:  uuid.Must(uuid.NewV7()),
		VotedAt:      time.Now().UTC(),
	}
	assert.ErrorIs(t, repo.AddConsumedPosition(ctx, dup), secretcodeDomain.ErrPositionConsumed)

	// A different position is fine
	other := &secretcodeDomain.ConsumedPosition{
		ID:           uuid.Must(uuid.NewV7()),
		SecretCodeID: secretCode.ID,
		PositionID:   uuid.Must(uuid.NewV7()),
		CandidateID:  uuid.Must(uuid.NewV7()),
		VotedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.AddConsumedPosition(ctx, other))

	all, err := repo.ListConsumedPositions(ctx, secretCode.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPostgreSQLSecretCodeRepository_Deactivate(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSecretCodeRepository(db)
	ctx := context.Background()

	secretCode := newTestSecretCode()
	require.NoError(t, repo.Create(ctx, secretCode))

	require.NoError(t, repo.Deactivate(ctx, secretCode.ID, time.Now().UTC()))

	got, err := repo.GetByVoterAndElection(ctx, secretCode.VoterID, secretCode.ElectionID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// A deactivated code no longer blocks a replacement for the same pair,
	// and lookups prefer the active row.
	replacement := newTestSecretCode()
	replacement.VoterID = secretCode.VoterID
	replacement.ElectionID = secretCode.ElectionID
	require.NoError(t, repo.Create(ctx, replacement))

	got, err = repo.GetByVoterAndElection(ctx, secretCode.VoterID, secretCode.ElectionID)
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, got.ID)
	assert.True(t, got.IsActive)
}
