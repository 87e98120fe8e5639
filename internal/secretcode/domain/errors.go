package domain

import "github.com/openballot/openballot/internal/errors"

var (
	// ErrInvalidSecretCode covers a missing record, a deactivated code and a
	// hash mismatch. Callers cannot tell which, so responses never reveal
	// whether a code exists for the voter.
	ErrInvalidSecretCode = errors.Wrap(errors.ErrUnauthorized, "invalid secret code")

	// ErrCodeLocked is returned while the code is inside a lockout window.
	ErrCodeLocked = errors.Wrap(errors.ErrLocked, "secret code locked")

	// ErrPositionConsumed is returned when the code was already used for the
	// requested position.
	ErrPositionConsumed = errors.Wrap(errors.ErrConflict, "secret code already used for this position")

	// ErrSecretCodeExists is returned when issuing a second code for the same
	// voter and election.
	ErrSecretCodeExists = errors.Wrap(errors.ErrConflict, "secret code already exists for this voter and election")

	// ErrSecretCodeNotFound is returned by lookups that are allowed to reveal
	// existence, such as issuance tooling.
	ErrSecretCodeNotFound = errors.Wrap(errors.ErrNotFound, "secret code not found")
)
