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

// RunAddPosition registers a ballot position on an existing election.
//
// Requirements: Database must be migrated and accessible.
func RunAddPosition(ctx context.Context, electionIDStr, name string) error {
	electionID, err := parseUUIDFlag("election-id", electionIDStr)
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

	return addPosition(ctx, useCase, logger, DefaultIO().Writer, electionID, name)
}

// addPosition is the testable core of RunAddPosition.
func addPosition(
	ctx context.Context,
	useCase electionUseCase.ElectionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	electionID uuid.UUID,
	name string,
) error {
	position, err := useCase.AddPosition(ctx, electionID, name)
	if err != nil {
		return fmt.Errorf("failed to add position: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Position ID: %s\n", position.ID.String())

	logger.Info("position added",
		slog.String("position_id", position.ID.String()),
		slog.String("name", name),
	)
	return nil
}
