// Package domain defines the eligibility grant model. A grant names the
// ballot positions one voter may vote for in one election.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a grant.
type Status string

const (
	// StatusActive allows voting for the granted positions.
	StatusActive Status = "active"

	// StatusSuspended blocks voting until the grant is reactivated.
	StatusSuspended Status = "suspended"

	// StatusRevoked permanently blocks voting under this grant.
	StatusRevoked Status = "revoked"

	// StatusReactivated behaves exactly as active; it is kept distinct so the
	// record shows the grant went through a suspension.
	StatusReactivated Status = "reactivated"
)

// EligibilityGrant names the positions a voter may vote for in an election.
// One grant per (voter, election).
type EligibilityGrant struct {
	ID         uuid.UUID
	VoterID    uuid.UUID
	ElectionID uuid.UUID
	Status     Status
	Positions  []uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Allows reports whether the grant currently permits voting for the position.
func (g *EligibilityGrant) Allows(positionID uuid.UUID) bool {
	if g.Status != StatusActive && g.Status != StatusReactivated {
		return false
	}
	for _, p := range g.Positions {
		if p == positionID {
			return true
		}
	}
	return false
}
