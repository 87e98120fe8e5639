package domain

import (
	"fmt"

	apperrors "github.com/openballot/openballot/internal/errors"
)

var (
	// ErrVoteNotFound is returned when a vote lookup misses.
	ErrVoteNotFound = fmt.Errorf("vote not found: %w", apperrors.ErrNotFound)

	// ErrDuplicateVote is returned when the voter already holds a ballot for
	// the (election, position) pair.
	ErrDuplicateVote = fmt.Errorf("vote already recorded for this position: %w", apperrors.ErrConflict)

	// ErrDuplicateBallot is returned when a ballot with the same content
	// hash or session token was already persisted (submission replay).
	ErrDuplicateBallot = fmt.Errorf("duplicate ballot submission: %w", apperrors.ErrConflict)

	// ErrNoOpTransition is returned when a transition targets the vote's
	// current status.
	ErrNoOpTransition = fmt.Errorf("vote already in the requested status: %w", apperrors.ErrConflict)

	// ErrInvalidTransition is returned when the target status is not
	// reachable from the current one.
	ErrInvalidTransition = fmt.Errorf("invalid vote status transition: %w", apperrors.ErrInvalidInput)
)
