package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
)

type signer struct{}

// NewSigner creates an HMAC-based audit log signer using HKDF-SHA256 for key
// derivation and HMAC-SHA256 for signature generation.
func NewSigner() Signer {
	return &signer{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// configured root key. The info parameter is versioned so the derivation can
// change without invalidating old signatures.
func (s *signer) deriveSigningKey(rootKey []byte) ([]byte, error) {
	info := []byte("audit-log-signing-v1")
	kdf := hkdf.New(sha256.New, rootKey, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalizeLog converts an entry to its canonical byte representation.
// Variable-length fields are length-prefixed to prevent ambiguity.
func (s *signer) canonicalizeLog(log *auditDomain.AuditLog) ([]byte, error) {
	buf := make([]byte, 0, 1024)

	buf = append(buf, log.ID[:]...)
	buf = append(buf, log.ActorID[:]...)

	buf = appendLengthPrefixed(buf, []byte(string(log.Action)))
	buf = appendLengthPrefixed(buf, []byte(log.ResourceType))
	buf = appendLengthPrefixed(buf, []byte(log.ResourceID))

	if log.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	if log.Detail != nil {
		detailBytes, err := json.Marshal(log.Detail)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal detail: %w", err)
		}
		buf = appendLengthPrefixed(buf, detailBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = appendLengthPrefixed(buf, []byte(log.RequestMeta.IPAddress))
	buf = appendLengthPrefixed(buf, []byte(log.RequestMeta.UserAgent))
	buf = appendLengthPrefixed(buf, []byte(log.RequestMeta.DeviceFingerprint))
	buf = appendLengthPrefixed(buf, []byte(log.RequestMeta.Location))

	score := make([]byte, 4)
	binary.BigEndian.PutUint32(score, uint32(log.RiskScore))
	buf = append(buf, score...)
	buf = appendLengthPrefixed(buf, []byte(string(log.RiskLevel)))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(log.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max to prevent integer overflow.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the entry.
func (s *signer) Sign(rootKey []byte, log *auditDomain.AuditLog) ([]byte, error) {
	signingKey, err := s.deriveSigningKey(rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}
	defer zero(signingKey)

	canonical, err := s.canonicalizeLog(log)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize log: %w", err)
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the stored signature against a freshly computed one.
func (s *signer) Verify(rootKey []byte, log *auditDomain.AuditLog) error {
	expectedSig, err := s.Sign(rootKey, log)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(log.Signature, expectedSig) {
		return auditDomain.ErrSignatureInvalid
	}

	return nil
}

// zero overwrites key material after use.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
