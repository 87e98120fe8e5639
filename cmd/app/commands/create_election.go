package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/openballot/openballot/internal/app"
	"github.com/openballot/openballot/internal/config"
	electionUseCase "github.com/openballot/openballot/internal/election/usecase"
)

// RunCreateElection creates a new election with its phase boundaries.
// Boundary flags are RFC 3339 timestamps and must be strictly ordered:
// registration < nomination < campaign < voting start < voting end.
//
// Requirements: Database must be migrated and accessible.
func RunCreateElection(
	ctx context.Context,
	name string,
	registrationStartsAt, nominationStartsAt, campaignStartsAt, votingStartsAt, votingEndsAt string,
	format string,
) error {
	input := &electionUseCase.CreateElectionInput{Name: name}

	var err error
	if input.RegistrationStartsAt, err = parseTimeFlag("registration-starts-at", registrationStartsAt); err != nil {
		return err
	}
	if input.NominationStartsAt, err = parseTimeFlag("nomination-starts-at", nominationStartsAt); err != nil {
		return err
	}
	if input.CampaignStartsAt, err = parseTimeFlag("campaign-starts-at", campaignStartsAt); err != nil {
		return err
	}
	if input.VotingStartsAt, err = parseTimeFlag("voting-starts-at", votingStartsAt); err != nil {
		return err
	}
	if input.VotingEndsAt, err = parseTimeFlag("voting-ends-at", votingEndsAt); err != nil {
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

	return createElection(ctx, useCase, logger, DefaultIO().Writer, input, format)
}

// createElection is the testable core of RunCreateElection.
func createElection(
	ctx context.Context,
	useCase electionUseCase.ElectionUseCase,
	logger *slog.Logger,
	writer io.Writer,
	input *electionUseCase.CreateElectionInput,
	format string,
) error {
	logger.Info("creating election", slog.String("name", input.Name))

	election, err := useCase.CreateElection(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create election: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			"election_id": election.ID.String(),
			"name":        election.Name,
			"status":      string(election.Status),
			"phase":       string(election.CurrentPhase),
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintln(writer, "Election created successfully!")
		_, _ = fmt.Fprintf(writer, "Election ID: %s\n", election.ID.String())
		_, _ = fmt.Fprintf(writer, "Status: %s\n", election.Status)
		_, _ = fmt.Fprintf(writer, "Phase: %s\n", election.CurrentPhase)
	}

	logger.Info("election created",
		slog.String("election_id", election.ID.String()),
		slog.String("name", election.Name),
	)
	return nil
}
