// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/openballot/openballot/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "openballot",
		Usage:   "Election vote-integrity and lifecycle engine",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "scheduler",
				Usage: "Start the background worker (phase reconciliation, audit cleanup)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunScheduler(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-election",
				Usage: "Create a new election with its phase boundaries",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Human-readable election name",
					},
					&cli.StringFlag{
						Name:     "registration-starts-at",
						Required: true,
						Usage:    "Registration phase start (RFC 3339)",
					},
					&cli.StringFlag{
						Name:     "nomination-starts-at",
						Required: true,
						Usage:    "Nomination phase start (RFC 3339)",
					},
					&cli.StringFlag{
						Name:     "campaign-starts-at",
						Required: true,
						Usage:    "Campaign phase start (RFC 3339)",
					},
					&cli.StringFlag{
						Name:     "voting-starts-at",
						Required: true,
						Usage:    "Voting phase start (RFC 3339)",
					},
					&cli.StringFlag{
						Name:     "voting-ends-at",
						Required: true,
						Usage:    "Voting phase end and results phase start (RFC 3339)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateElection(
						ctx,
						cmd.String("name"),
						cmd.String("registration-starts-at"),
						cmd.String("nomination-starts-at"),
						cmd.String("campaign-starts-at"),
						cmd.String("voting-starts-at"),
						cmd.String("voting-ends-at"),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "add-position",
				Usage: "Register a ballot position on an election",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "election-id",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "Election ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Position name",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunAddPosition(ctx, cmd.String("election-id"), cmd.String("name"))
				},
			},
			{
				Name:  "add-candidate",
				Usage: "Register a candidate for a position",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "position-id",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Position ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Candidate name",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunAddCandidate(ctx, cmd.String("position-id"), cmd.String("name"))
				},
			},
			{
				Name:  "issue-secret-code",
				Usage: "Issue a secret code for a voter in an election",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "voter-id",
						Aliases:  []string{"v"},
						Required: true,
						Usage:    "Voter ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "election-id",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "Election ID (UUID)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunIssueSecretCode(
						ctx,
						cmd.String("voter-id"),
						cmd.String("election-id"),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "reissue-secret-code",
				Usage: "Replace a voter's secret code; the old code stops working",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "voter-id",
						Aliases:  []string{"v"},
						Required: true,
						Usage:    "Voter ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "election-id",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "Election ID (UUID)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunReissueSecretCode(
						ctx,
						cmd.String("voter-id"),
						cmd.String("election-id"),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "grant-eligibility",
				Usage: "Grant a voter eligibility for positions in an election",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "voter-id",
						Aliases:  []string{"v"},
						Required: true,
						Usage:    "Voter ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "election-id",
						Aliases:  []string{"e"},
						Required: true,
						Usage:    "Election ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "positions",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Comma-separated position IDs (UUIDs)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGrantEligibility(
						ctx,
						cmd.String("voter-id"),
						cmd.String("election-id"),
						cmd.String("positions"),
					)
				},
			},
			{
				Name:  "clean-audit-logs",
				Usage: "Delete audit logs older than specified days",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "days",
						Aliases:  []string{"d"},
						Required: true,
						Usage:    "Delete audit logs older than this many days",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCleanAuditLogs(ctx, cmd.Int("days"), cmd.String("format"))
				},
			},
			{
				Name:  "verify-audit-logs",
				Usage: "Re-check audit log signatures for tampering",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "offset",
						Value: 0,
						Usage: "Number of entries to skip",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 100,
						Usage: "Maximum entries to verify",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyAuditLogs(
						ctx,
						cmd.Int("offset"),
						cmd.Int("limit"),
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
