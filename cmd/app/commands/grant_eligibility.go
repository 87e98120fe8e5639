package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openballot/openballot/internal/app"
	"github.com/openballot/openballot/internal/config"
	eligibilityUseCase "github.com/openballot/openballot/internal/eligibility/usecase"
)

// RunGrantEligibility registers an eligibility grant for a voter covering the
// given positions.
//
// Requirements: Database must be migrated and accessible.
func RunGrantEligibility(ctx context.Context, voterIDStr, electionIDStr, positionsStr string) error {
	voterID, err := parseUUIDFlag("voter-id", voterIDStr)
	if err != nil {
		return err
	}
	electionID, err := parseUUIDFlag("election-id", electionIDStr)
	if err != nil {
		return err
	}
	positions, err := parseUUIDList("positions", positionsStr)
	if err != nil {
		return err
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.EligibilityUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize eligibility use case: %w", err)
	}

	return grantEligibility(ctx, useCase, logger, DefaultIO().Writer, voterID, electionID, positions)
}

// grantEligibility is the testable core of RunGrantEligibility.
func grantEligibility(
	ctx context.Context,
	useCase eligibilityUseCase.EligibilityUseCase,
	logger *slog.Logger,
	writer io.Writer,
	voterID, electionID uuid.UUID,
	positions []uuid.UUID,
) error {
	grant, err := useCase.Create(ctx, voterID, electionID, positions)
	if err != nil {
		return fmt.Errorf("failed to create eligibility grant: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Eligibility grant created successfully!")
	_, _ = fmt.Fprintf(writer, "Grant ID: %s\n", grant.ID.String())
	_, _ = fmt.Fprintf(writer, "Positions: %d\n", len(positions))

	logger.Info("eligibility grant created",
		slog.String("grant_id", grant.ID.String()),
		slog.String("voter_id", voterID.String()),
		slog.Int("positions", len(positions)),
	)
	return nil
}
