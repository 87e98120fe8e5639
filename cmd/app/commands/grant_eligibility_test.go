package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	eligibilityDomain "github.com/openballot/openballot/internal/eligibility/domain"
	eligibilityUseCase "github.com/openballot/openballot/internal/eligibility/usecase"
)

// mockEligibilityUseCase is a mock implementation of EligibilityUseCase for testing.
type mockEligibilityUseCase struct {
	mock.Mock
}

func (m *mockEligibilityUseCase) Check(
	ctx context.Context,
	voterID, electionID, positionID uuid.UUID,
	meta auditDomain.RequestMeta,
) (*eligibilityUseCase.Clearance, error) {
	args := m.Called(ctx, voterID, electionID, positionID, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eligibilityUseCase.Clearance), args.Error(1)
}

func (m *mockEligibilityUseCase) Create(
	ctx context.Context,
	voterID, electionID uuid.UUID,
	positions []uuid.UUID,
) (*eligibilityDomain.EligibilityGrant, error) {
	args := m.Called(ctx, voterID, electionID, positions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eligibilityDomain.EligibilityGrant), args.Error(1)
}

func (m *mockEligibilityUseCase) Suspend(ctx context.Context, voterID, electionID uuid.UUID) error {
	args := m.Called(ctx, voterID, electionID)
	return args.Error(0)
}

func (m *mockEligibilityUseCase) Reactivate(ctx context.Context, voterID, electionID uuid.UUID) error {
	args := m.Called(ctx, voterID, electionID)
	return args.Error(0)
}

func (m *mockEligibilityUseCase) Revoke(ctx context.Context, voterID, electionID uuid.UUID) error {
	args := m.Called(ctx, voterID, electionID)
	return args.Error(0)
}

func TestGrantEligibility(t *testing.T) {
	ctx := context.Background()
	logger := testCommandLogger()
	voterID := uuid.Must(uuid.NewV7())
	electionID := uuid.Must(uuid.NewV7())
	positions := []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())}

	t.Run("creates a grant", func(t *testing.T) {
		grant := &eligibilityDomain.EligibilityGrant{
			ID:         uuid.Must(uuid.NewV7()),
			VoterID:    voterID,
			ElectionID: electionID,
			Positions:  positions,
		}
		mockUseCase := &mockEligibilityUseCase{}
		mockUseCase.On("Create", ctx, voterID, electionID, positions).Return(grant, nil)

		var out bytes.Buffer
		err := grantEligibility(ctx, mockUseCase, logger, &out, voterID, electionID, positions)

		require.NoError(t, err)
		require.Contains(t, out.String(), grant.ID.String())
		require.Contains(t, out.String(), "Positions: 2")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("create failure", func(t *testing.T) {
		mockUseCase := &mockEligibilityUseCase{}
		mockUseCase.On("Create", ctx, voterID, electionID, positions).
			Return(nil, eligibilityDomain.ErrGrantExists)

		err := grantEligibility(ctx, mockUseCase, logger, &bytes.Buffer{}, voterID, electionID, positions)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create eligibility grant")
	})
}

func TestParseUUIDList(t *testing.T) {
	t.Run("parses comma-separated UUIDs", func(t *testing.T) {
		a := uuid.Must(uuid.NewV7())
		b := uuid.Must(uuid.NewV7())

		ids, err := parseUUIDList("positions", a.String()+", "+b.String())

		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{a, b}, ids)
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		_, err := parseUUIDList("positions", "not-a-uuid")
		require.Error(t, err)
	})

	t.Run("rejects empty lists", func(t *testing.T) {
		_, err := parseUUIDList("positions", " , ")
		require.Error(t, err)
	})
}
