// Package domain contains the vote recorder's core types. A vote moves
// through cast, verified and counted, with disputes and invalidation as
// side exits; every transition is recorded in the per-vote audit trail.
package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/openballot/openballot/internal/errors"
)

// NonceSize is the number of random bytes mixed into the content hash so
// identical ballots from a reissued flow still hash differently.
const NonceSize = 16

// Status is the ballot lifecycle state.
type Status string

const (
	StatusCast     Status = "cast"
	StatusVerified Status = "verified"
	StatusCounted  Status = "counted"
	StatusDisputed Status = "disputed"
	StatusInvalid  Status = "invalid"
)

// allowedTransitions lists the reachable statuses per current status.
// Invalid is terminal.
var allowedTransitions = map[Status][]Status{
	StatusCast:     {StatusVerified, StatusDisputed, StatusInvalid},
	StatusVerified: {StatusCounted, StatusDisputed, StatusInvalid},
	StatusCounted:  {StatusDisputed},
	StatusDisputed: {StatusCounted, StatusInvalid},
}

// CanTransition reports whether a vote may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Vote is one persisted ballot. SessionToken and ContentHash are unique
// across all votes; the (election, voter, position) triple is unique so a
// voter holds at most one ballot per position.
type Vote struct {
	ID                 uuid.UUID
	ElectionID         uuid.UUID
	PositionID         uuid.UUID
	CandidateID        uuid.UUID
	VoterID            uuid.UUID
	SecretCodeID       uuid.UUID
	GrantID            uuid.UUID
	SessionToken       string
	ContentHash        string
	Status             Status
	DisputeReason      string
	DisputeSubmittedBy string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VoteAuditEntry is one row of the per-vote trail, appended on every
// mutation of the vote.
type VoteAuditEntry struct {
	ID        uuid.UUID
	VoteID    uuid.UUID
	Action    string
	Actor     string
	Detail    map[string]any
	CreatedAt time.Time
}

// NewNonce returns NonceSize bytes of cryptographic randomness.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate ballot nonce")
	}
	return nonce, nil
}

// ComputeContentHash derives the ballot fingerprint: SHA-256 over the
// identifying fields plus the random nonce, hex encoded.
func ComputeContentHash(electionID, positionID, candidateID, voterID uuid.UUID, nonce []byte) string {
	h := sha256.New()
	h.Write(electionID[:])
	h.Write(positionID[:])
	h.Write(candidateID[:])
	h.Write(voterID[:])
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil))
}
