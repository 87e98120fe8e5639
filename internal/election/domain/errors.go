package domain

import "github.com/openballot/openballot/internal/errors"

var (
	// ErrElectionNotFound is returned when an election lookup finds nothing.
	ErrElectionNotFound = errors.Wrap(errors.ErrNotFound, "election not found")

	// ErrPositionNotFound is returned when a position lookup finds nothing.
	ErrPositionNotFound = errors.Wrap(errors.ErrNotFound, "position not found")

	// ErrCandidateNotFound is returned when a candidate lookup finds nothing.
	ErrCandidateNotFound = errors.Wrap(errors.ErrNotFound, "candidate not found")

	// ErrInvalidCandidate is returned when the candidate does not run for the
	// requested position or the position does not belong to the election.
	ErrInvalidCandidate = errors.Wrap(errors.ErrInvalidInput, "candidate does not belong to this position")

	// ErrInvalidBoundaries is returned when election boundary timestamps are
	// not strictly ordered.
	ErrInvalidBoundaries = errors.Wrap(errors.ErrInvalidInput, "election boundary timestamps must be ordered")
)
