package domain

import "github.com/openballot/openballot/internal/errors"

var (
	// ErrAuditLogNotFound is returned when an audit log lookup finds nothing.
	ErrAuditLogNotFound = errors.Wrap(errors.ErrNotFound, "audit log not found")

	// ErrSignatureInvalid is returned when an entry fails signature verification.
	ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "audit log signature invalid")
)
