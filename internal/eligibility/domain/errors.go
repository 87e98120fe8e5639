package domain

import "github.com/openballot/openballot/internal/errors"

var (
	// ErrNotEligible covers a missing grant, an inactive grant and a position
	// outside the grant's scope.
	ErrNotEligible = errors.Wrap(errors.ErrForbidden, "voter not eligible for this position")

	// ErrGrantNotFound is returned by management lookups.
	ErrGrantNotFound = errors.Wrap(errors.ErrNotFound, "eligibility grant not found")

	// ErrGrantExists is returned when creating a second grant for the same
	// voter and election.
	ErrGrantExists = errors.Wrap(errors.ErrConflict, "eligibility grant already exists for this voter and election")

	// ErrInvalidTransition is returned for lifecycle moves the current status
	// does not allow, such as reactivating a revoked grant.
	ErrInvalidTransition = errors.Wrap(errors.ErrInvalidInput, "invalid eligibility grant transition")
)
