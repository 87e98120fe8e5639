// Package service provides technical services for the audit trail.
package service

import (
	auditDomain "github.com/openballot/openballot/internal/audit/domain"
)

// Signer signs and verifies audit log entries so that tampering with stored
// entries is detectable. Signatures cover every field that influences an
// entry's meaning, including the computed risk score.
type Signer interface {
	// Sign computes the HMAC-SHA256 signature for the entry.
	// Returns a 32-byte signature or an error if signing fails.
	Sign(signingKey []byte, log *auditDomain.AuditLog) ([]byte, error)

	// Verify checks the entry's stored signature.
	// Returns nil if valid, ErrSignatureInvalid if tampered.
	Verify(signingKey []byte, log *auditDomain.AuditLog) error
}
