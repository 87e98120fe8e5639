package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	secretcodeUseCase "github.com/openballot/openballot/internal/secretcode/usecase"
)

// mockSecretCodeUseCase is a mock implementation of SecretCodeUseCase for testing.
type mockSecretCodeUseCase struct {
	mock.Mock
}

func (m *mockSecretCodeUseCase) Validate(
	ctx context.Context,
	voterID, electionID, positionID uuid.UUID,
	submittedCode string,
	meta auditDomain.RequestMeta,
) (*secretcodeUseCase.Authorization, error) {
	args := m.Called(ctx, voterID, electionID, positionID, submittedCode, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretcodeUseCase.Authorization), args.Error(1)
}

func (m *mockSecretCodeUseCase) MarkConsumed(
	ctx context.Context,
	auth *secretcodeUseCase.Authorization,
	candidateID uuid.UUID,
) error {
	args := m.Called(ctx, auth, candidateID)
	return args.Error(0)
}

func (m *mockSecretCodeUseCase) Issue(
	ctx context.Context,
	voterID, electionID uuid.UUID,
) (*secretcodeUseCase.IssueOutput, error) {
	args := m.Called(ctx, voterID, electionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretcodeUseCase.IssueOutput), args.Error(1)
}

func (m *mockSecretCodeUseCase) Reissue(
	ctx context.Context,
	voterID, electionID uuid.UUID,
) (*secretcodeUseCase.IssueOutput, error) {
	args := m.Called(ctx, voterID, electionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretcodeUseCase.IssueOutput), args.Error(1)
}

func TestIssueSecretCode(t *testing.T) {
	ctx := context.Background()
	logger := testCommandLogger()
	voterID := uuid.Must(uuid.NewV7())
	electionID := uuid.Must(uuid.NewV7())

	output := &secretcodeUseCase.IssueOutput{
		SecretCodeID: uuid.Must(uuid.NewV7()),
		PlainCode:    "B7KM2P",
	}

	t.Run("text output shows the plain code once", func(t *testing.T) {
		mockUseCase := &mockSecretCodeUseCase{}
		mockUseCase.On("Issue", ctx, voterID, electionID).Return(output, nil)

		var out bytes.Buffer
		err := issueSecretCode(ctx, mockUseCase, logger, &out, voterID, electionID, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "B7KM2P")
		require.Contains(t, out.String(), output.SecretCodeID.String())
		require.Contains(t, out.String(), "shown only once")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json output", func(t *testing.T) {
		mockUseCase := &mockSecretCodeUseCase{}
		mockUseCase.On("Issue", ctx, voterID, electionID).Return(output, nil)

		var out bytes.Buffer
		err := issueSecretCode(ctx, mockUseCase, logger, &out, voterID, electionID, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"code": "B7KM2P"`)
	})

	t.Run("issue failure", func(t *testing.T) {
		mockUseCase := &mockSecretCodeUseCase{}
		mockUseCase.On("Issue", ctx, voterID, electionID).Return(nil, context.DeadlineExceeded)

		err := issueSecretCode(ctx, mockUseCase, logger, &bytes.Buffer{}, voterID, electionID, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to issue secret code")
	})
}
