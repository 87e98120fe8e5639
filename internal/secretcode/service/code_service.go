// Package service provides code generation and hashing for secret codes.
package service

import (
	"crypto/rand"
	"math/big"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/openballot/openballot/internal/errors"
)

// CodeLength is the fixed length of a generated secret code.
const CodeLength = 6

// codeAlphabet excludes characters easily confused on printed material
// (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeService generates and verifies secret codes. Plain codes exist only in
// transit; storage always holds the Argon2id hash.
type CodeService interface {
	// GenerateCode creates a new random code and its hash. The plain code is
	// returned once for delivery to the voter and never stored.
	GenerateCode() (plainCode string, codeHash string, err error)

	// HashCode hashes a plain code for storage.
	HashCode(plainCode string) (codeHash string, err error)

	// CompareCode compares a submitted code against a stored hash.
	// Constant-time underneath to prevent timing attacks.
	CompareCode(plainCode string, codeHash string) bool
}

type codeService struct {
	hasher *pwdhash.PasswordHasher
}

// NewCodeService creates a CodeService using Argon2id hashing with the
// moderate policy.
func NewCodeService() CodeService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &codeService{hasher: hasher}
}

// GenerateCode creates a 6-character code from the unambiguous alphabet using
// crypto/rand with rejection-free uniform selection.
func (c *codeService) GenerateCode() (string, string, error) {
	code := make([]byte, CodeLength)
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))

	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", "", apperrors.Wrap(err, "failed to generate random code")
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	plainCode := string(code)
	codeHash, err := c.HashCode(plainCode)
	if err != nil {
		return "", "", err
	}

	return plainCode, codeHash, nil
}

// HashCode hashes a plain code using Argon2id.
func (c *codeService) HashCode(plainCode string) (string, error) {
	codeHash, err := c.hasher.Hash([]byte(plainCode))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret code")
	}
	return codeHash, nil
}

// CompareCode performs a constant-time comparison between a plain code and its hash.
func (c *codeService) CompareCode(plainCode string, codeHash string) bool {
	ok, err := c.hasher.Verify([]byte(plainCode), codeHash)
	if err != nil {
		return false
	}
	return ok
}
