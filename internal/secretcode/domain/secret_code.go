// Package domain defines the secret code domain model. A secret code is a
// short one-time credential bound to one voter and one election; each ballot
// position consumes it exactly once.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxAttempts is the default number of failed validations before lockout.
const MaxAttempts = 3

// DefaultLockoutDuration is the default lockout window after MaxAttempts.
const DefaultLockoutDuration = 15 * time.Minute

// SecretCode is the stored credential for one (voter, election) pair.
// The plain code is never stored; CodeHash is an Argon2id hash.
type SecretCode struct {
	ID          uuid.UUID
	VoterID     uuid.UUID
	ElectionID  uuid.UUID
	CodeHash    string
	Attempts    int
	LockedUntil *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Locked reports whether the code is inside a lockout window at the instant.
func (s *SecretCode) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// ConsumedPosition records one position the code has been used for.
// A code is consumed per position, not per election.
type ConsumedPosition struct {
	ID           uuid.UUID
	SecretCodeID uuid.UUID
	PositionID   uuid.UUID
	CandidateID  uuid.UUID
	VotedAt      time.Time
}

