package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openballot/openballot/internal/app"
	"github.com/openballot/openballot/internal/config"
	electionUseCase "github.com/openballot/openballot/internal/election/usecase"
)

// RunAddCandidate registers a candidate for an existing position.
//
// Requirements: Database must be migrated and accessible.
func RunAddCandidate(ctx context.Context, positionIDStr, name string) error {
	positionID, err := parseUUIDFlag("position-id", positionIDStr)
	if err != nil {
		return err
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.ElectionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize election use case: %w", err)
	}

	return addCandidate(ctx, useCase, logger, DefaultIO().Writer, positionID, name)
}

// addCandidate is the testable core of RunAddCandidate.
func addCandidate(
	ctx context.Context,
	useCase electionUseCase.ElectionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	positionID uuid.UUID,
	name string,
) error {
	candidate, err := useCase.AddCandidate(ctx, positionID, name)
	if err != nil {
		return fmt.Errorf("failed to add candidate: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Candidate ID: %s\n", candidate.ID.String())

	logger.Info("candidate added",
		slog.String("candidate_id", candidate.ID.String()),
		slog.String("name", name),
	)
	return nil
}
