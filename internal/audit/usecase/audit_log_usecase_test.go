package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditService "github.com/openballot/openballot/internal/audit/service"
	"github.com/openballot/openballot/internal/clock"
)

// mockAuditLogRepository is a mock implementation of AuditLogRepository for testing.
type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, auditLog *auditDomain.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *mockAuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*auditDomain.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
	offset, limit int,
) ([]*auditDomain.AuditLog, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newTestUseCase(repo AuditLogRepository, clk clock.Clock) AuditLogUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuditLogUseCase(repo, auditService.NewSigner(), testSigningKey, clk, logger, 3, time.Millisecond)
}

func TestAuditLogUseCase_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("scores signs and persists the entry", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		uc := newTestUseCase(mockRepo, clk)

		var captured *auditDomain.AuditLog
		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.AuditLog")).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*auditDomain.AuditLog)
			}).
			Return(nil).
			Once()

		actorID := uuid.Must(uuid.NewV7())
		got := uc.Record(ctx, RecordInput{
			ActorID:      actorID,
			Action:       auditDomain.ActionVoteCast,
			ResourceType: "vote",
			ResourceID:   "v-1",
			Success:      true,
			Detail:       map[string]any{"election_id": "e-1"},
			RequestMeta:  auditDomain.RequestMeta{IPAddress: "198.51.100.7"},
		})

		mockRepo.AssertExpectations(t)
		require.NotNil(t, captured)
		assert.Equal(t, got, captured)
		assert.Equal(t, actorID, captured.ActorID)
		assert.Equal(t, clk.Instant, captured.CreatedAt)
		assert.Equal(t, 25, captured.RiskScore)
		assert.Equal(t, auditDomain.RiskLevelLow, captured.RiskLevel)
		assert.NoError(t, auditService.NewSigner().Verify(testSigningKey, captured))
	})

	t.Run("failed operations score higher", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		uc := newTestUseCase(mockRepo, clk)

		var captured *auditDomain.AuditLog
		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.AuditLog")).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*auditDomain.AuditLog)
			}).
			Return(nil).
			Once()

		uc.Record(ctx, RecordInput{
			ActorID: auditDomain.AnonymousActor,
			Action:  auditDomain.ActionSecretCodeValidate,
			Success: false,
		})

		require.NotNil(t, captured)
		assert.GreaterOrEqual(t, captured.RiskScore, 60)
		assert.Equal(t, auditDomain.RiskLevelMedium, captured.RiskLevel)
	})

	t.Run("persistence failure is retried and swallowed", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		clk := clock.NewSystemClock()
		uc := newTestUseCase(mockRepo, clk)

		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.AuditLog")).
			Return(errors.New("connection refused")).
			Times(3)

		got := uc.Record(ctx, RecordInput{
			ActorID: uuid.Must(uuid.NewV7()),
			Action:  auditDomain.ActionVoteCast,
			Success: true,
		})

		mockRepo.AssertExpectations(t)
		assert.NotNil(t, got)
	})

	t.Run("transient failure recovers on retry", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		clk := clock.NewSystemClock()
		uc := newTestUseCase(mockRepo, clk)

		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.AuditLog")).
			Return(errors.New("connection refused")).
			Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.AuditLog")).
			Return(nil).
			Once()

		uc.Record(ctx, RecordInput{
			ActorID: uuid.Must(uuid.NewV7()),
			Action:  auditDomain.ActionVoteCast,
			Success: true,
		})

		mockRepo.AssertExpectations(t)
	})
}

func TestAuditLogUseCase_List(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filter and pagination through", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		uc := newTestUseCase(mockRepo, clock.NewSystemClock())

		action := auditDomain.ActionVoteCast
		filter := auditDomain.ListFilter{Action: &action}
		expected := []*auditDomain.AuditLog{{ID: uuid.Must(uuid.NewV7())}}

		mockRepo.On("List", ctx, filter, 10, 50).Return(expected, nil).Once()

		got, err := uc.List(ctx, filter, 10, 50)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		uc := newTestUseCase(mockRepo, clock.NewSystemClock())

		mockRepo.On("List", ctx, auditDomain.ListFilter{}, 0, 50).
			Return(nil, errors.New("query failed")).
			Once()

		_, err := uc.List(ctx, auditDomain.ListFilter{}, 0, 50)
		assert.Error(t, err)
	})
}

func TestAuditLogUseCase_Verify(t *testing.T) {
	ctx := context.Background()
	clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}

	t.Run("valid entries pass, tampered entries are reported", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		uc := newTestUseCase(mockRepo, clk)

		var valid, tampered *auditDomain.AuditLog
		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.AuditLog")).
			Run(func(args mock.Arguments) {
				log := args.Get(1).(*auditDomain.AuditLog)
				if valid == nil {
					valid = log
				} else {
					tampered = log
				}
			}).
			Return(nil).
			Twice()

		uc.Record(ctx, RecordInput{ActorID: uuid.Must(uuid.NewV7()), Action: auditDomain.ActionVoteCast, Success: true})
		uc.Record(ctx, RecordInput{ActorID: uuid.Must(uuid.NewV7()), Action: auditDomain.ActionVoteCast, Success: true})
		require.NotNil(t, tampered)
		tampered.Success = false

		mockRepo.On("List", ctx, auditDomain.ListFilter{}, 0, 100).
			Return([]*auditDomain.AuditLog{valid, tampered}, nil).
			Once()

		report, err := uc.Verify(ctx, auditDomain.ListFilter{}, 0, 100)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Checked)
		require.Len(t, report.InvalidIDs, 1)
		assert.Equal(t, tampered.ID, report.InvalidIDs[0])
	})
}

func TestAuditLogUseCase_CleanupExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes entries older than retention cutoff", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		uc := newTestUseCase(mockRepo, clk)

		retention := 365 * 24 * time.Hour
		cutoff := clk.Instant.Add(-retention)
		mockRepo.On("DeleteOlderThan", ctx, cutoff).Return(int64(42), nil).Once()

		deleted, err := uc.CleanupExpired(ctx, retention)
		require.NoError(t, err)
		assert.Equal(t, int64(42), deleted)
		mockRepo.AssertExpectations(t)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		mockRepo := &mockAuditLogRepository{}
		uc := newTestUseCase(mockRepo, clock.NewSystemClock())

		mockRepo.On("DeleteOlderThan", ctx, mock.AnythingOfType("time.Time")).
			Return(int64(0), errors.New("delete failed")).
			Once()

		_, err := uc.CleanupExpired(ctx, 24*time.Hour)
		assert.Error(t, err)
	})
}
