package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openballot/openballot/internal/app"
	"github.com/openballot/openballot/internal/config"
	secretcodeUseCase "github.com/openballot/openballot/internal/secretcode/usecase"
)

// RunIssueSecretCode issues a new secret code for a (voter, election) pair.
// The plain code is printed exactly once; only its hash is stored.
//
// Requirements: Database must be migrated and accessible.
func RunIssueSecretCode(ctx context.Context, voterIDStr, electionIDStr, format string) error {
	voterID, err := parseUUIDFlag("voter-id", voterIDStr)
	if err != nil {
		return err
	}
	electionID, err := parseUUIDFlag("election-id", electionIDStr)
	if err != nil {
		return err
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.SecretCodeUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize secret code use case: %w", err)
	}

	return issueSecretCode(ctx, useCase, logger, DefaultIO().Writer, voterID, electionID, format)
}

// issueSecretCode is the testable core of RunIssueSecretCode.
func issueSecretCode(
	ctx context.Context,
	useCase secretcodeUseCase.SecretCodeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	voterID, electionID uuid.UUID,
	format string,
) error {
	logger.Info("issuing secret code",
		slog.String("voter_id", voterID.String()),
		slog.String("election_id", electionID.String()),
	)

	output, err := useCase.Issue(ctx, voterID, electionID)
	if err != nil {
		return fmt.Errorf("failed to issue secret code: %w", err)
	}

	if format == "json" {
		result := map[string]string{
			"secret_code_id": output.SecretCodeID.String(),
			"code":           output.PlainCode,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintln(writer, "Secret code issued successfully!")
		_, _ = fmt.Fprintf(writer, "Secret Code ID: %s\n", output.SecretCodeID.String())
		_, _ = fmt.Fprintf(writer, "Code: %s\n", output.PlainCode)
		_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The code is shown only once. Deliver it to the voter securely.")
	}

	logger.Info("secret code issued",
		slog.String("secret_code_id", output.SecretCodeID.String()),
		slog.String("voter_id", voterID.String()),
	)
	return nil
}
