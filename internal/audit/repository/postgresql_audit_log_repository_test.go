package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	"github.com/openballot/openballot/internal/testutil"
)

func newTestAuditLog(action auditDomain.Action, success bool) *auditDomain.AuditLog {
	return &auditDomain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorID:      uuid.Must(uuid.NewV7()),
		Action:       action,
		ResourceType: "vote",
		ResourceID:   uuid.Must(uuid.NewV7()).String(),
		Success:      success,
		Detail: map[string]any{
			"election_id": uuid.Must(uuid.NewV7()).String(),
		},
		RequestMeta: auditDomain.RequestMeta{
			IPAddress: "198.51.100.7",
			UserAgent: "test-agent",
		},
		RiskScore: 25,
		RiskLevel: auditDomain.RiskLevelLow,
		Signature: []byte("test-signature-bytes-32-in-len!!"),
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewPostgreSQLAuditLogRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgreSQLAuditLogRepository{}, repo)
}

func TestPostgreSQLAuditLogRepository_Create(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	auditLog := newTestAuditLog(auditDomain.ActionVoteCast, true)

	err := repo.Create(ctx, auditLog)
	require.NoError(t, err)

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE id = $1`, auditLog.ID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgreSQLAuditLogRepository_Create_WithNilDetail(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	auditLog := newTestAuditLog(auditDomain.ActionEligibilityCheck, true)
	auditLog.Detail = nil

	err := repo.Create(ctx, auditLog)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, auditLog.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Detail)
}

func TestPostgreSQLAuditLogRepository_GetByID(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	auditLog := newTestAuditLog(auditDomain.ActionSecretCodeValidate, false)
	require.NoError(t, repo.Create(ctx, auditLog))

	got, err := repo.GetByID(ctx, auditLog.ID)
	require.NoError(t, err)
	assert.Equal(t, auditLog.ID, got.ID)
	assert.Equal(t, auditLog.ActorID, got.ActorID)
	assert.Equal(t, auditLog.Action, got.Action)
	assert.False(t, got.Success)
	assert.Equal(t, auditLog.RequestMeta.IPAddress, got.RequestMeta.IPAddress)
	assert.Equal(t, auditLog.Signature, got.Signature)
	assert.Equal(t, auditLog.Detail["election_id"], got.Detail["election_id"])

	_, err = repo.GetByID(ctx, uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, auditDomain.ErrAuditLogNotFound)
}

func TestPostgreSQLAuditLogRepository_List(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	first := newTestAuditLog(auditDomain.ActionVoteCast, true)
	second := newTestAuditLog(auditDomain.ActionSecretCodeValidate, false)
	third := newTestAuditLog(auditDomain.ActionSecretCodeValidate, true)
	for _, l := range []*auditDomain.AuditLog{first, second, third} {
		require.NoError(t, repo.Create(ctx, l))
	}

	t.Run("returns newest first", func(t *testing.T) {
		logs, err := repo.List(ctx, auditDomain.ListFilter{}, 0, 10)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, third.ID, logs[0].ID)
		assert.Equal(t, first.ID, logs[2].ID)
	})

	t.Run("filters by action", func(t *testing.T) {
		action := auditDomain.ActionSecretCodeValidate
		logs, err := repo.List(ctx, auditDomain.ListFilter{Action: &action}, 0, 10)
		require.NoError(t, err)
		assert.Len(t, logs, 2)
	})

	t.Run("filters by success", func(t *testing.T) {
		failed := false
		logs, err := repo.List(ctx, auditDomain.ListFilter{Success: &failed}, 0, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, second.ID, logs[0].ID)
	})

	t.Run("filters by actor", func(t *testing.T) {
		logs, err := repo.List(ctx, auditDomain.ListFilter{ActorID: &first.ActorID}, 0, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, first.ID, logs[0].ID)
	})

	t.Run("combines filters", func(t *testing.T) {
		action := auditDomain.ActionSecretCodeValidate
		ok := true
		logs, err := repo.List(ctx, auditDomain.ListFilter{Action: &action, Success: &ok}, 0, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, third.ID, logs[0].ID)
	})

	t.Run("respects pagination", func(t *testing.T) {
		logs, err := repo.List(ctx, auditDomain.ListFilter{}, 1, 1)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, second.ID, logs[0].ID)
	})

	t.Run("empty result is a non-nil slice", func(t *testing.T) {
		actor := uuid.Must(uuid.NewV7())
		logs, err := repo.List(ctx, auditDomain.ListFilter{ActorID: &actor}, 0, 10)
		require.NoError(t, err)
		assert.NotNil(t, logs)
		assert.Empty(t, logs)
	})
}

func TestPostgreSQLAuditLogRepository_List_TimeRange(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	old := newTestAuditLog(auditDomain.ActionVoteCast, true)
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	recent := newTestAuditLog(auditDomain.ActionVoteCast, true)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	from := time.Now().UTC().Add(-24 * time.Hour)
	logs, err := repo.List(ctx, auditDomain.ListFilter{CreatedAtFrom: &from}, 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, recent.ID, logs[0].ID)

	to := time.Now().UTC().Add(-24 * time.Hour)
	logs, err = repo.List(ctx, auditDomain.ListFilter{CreatedAtTo: &to}, 0, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, old.ID, logs[0].ID)
}

func TestPostgreSQLAuditLogRepository_DeleteOlderThan(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLAuditLogRepository(db)
	ctx := context.Background()

	expired := newTestAuditLog(auditDomain.ActionVoteCast, true)
	expired.CreatedAt = time.Now().UTC().Add(-400 * 24 * time.Hour)
	kept := newTestAuditLog(auditDomain.ActionVoteCast, true)
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, kept))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByID(ctx, expired.ID)
	assert.ErrorIs(t, err, auditDomain.ErrAuditLogNotFound)

	_, err = repo.GetByID(ctx, kept.ID)
	assert.NoError(t, err)
}
