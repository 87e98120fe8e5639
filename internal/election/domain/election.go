// Package domain defines the election lifecycle model. Phases derive
// deterministically from boundary timestamps so reconciliation is idempotent.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the administrative state of an election.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Phase is the time-derived stage of an election.
type Phase string

const (
	PhaseRegistration Phase = "registration"
	PhaseNomination   Phase = "nomination"
	PhaseCampaign     Phase = "campaign"
	PhaseVoting       Phase = "voting"
	PhaseResults      Phase = "results"
	PhaseCompleted    Phase = "completed"
)

// Election carries the boundary timestamps the scheduler reconciles against.
// ResultsDispatched is a one-shot flag: provisional results are published at
// most once per election.
type Election struct {
	ID                   uuid.UUID
	Name                 string
	Status               Status
	CurrentPhase         Phase
	RegistrationStartsAt time.Time
	NominationStartsAt   time.Time
	CampaignStartsAt     time.Time
	VotingStartsAt       time.Time
	VotingEndsAt         time.Time
	ResultsDispatched    bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Terminal reports whether the election needs no further reconciliation.
func (e *Election) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusCancelled
}

// PhaseFor computes the phase an election should be in at the instant.
// Deterministic in (election boundaries, now); the scheduler applies it
// repeatedly without side effects.
func PhaseFor(e *Election, now time.Time) Phase {
	switch {
	case now.Before(e.NominationStartsAt):
		return PhaseRegistration
	case now.Before(e.CampaignStartsAt):
		return PhaseNomination
	case now.Before(e.VotingStartsAt):
		return PhaseCampaign
	case now.Before(e.VotingEndsAt):
		return PhaseVoting
	default:
		return PhaseResults
	}
}

// StatusFor computes the administrative status matching a phase. Draft and
// cancelled elections are never advanced; callers skip them. The results
// phase keeps the election active: it only completes once the provisional
// results went out, so a failed dispatch stays in the reconciliation set.
func StatusFor(phase Phase) Status {
	switch phase {
	case PhaseRegistration, PhaseNomination, PhaseCampaign:
		return StatusScheduled
	case PhaseVoting, PhaseResults:
		return StatusActive
	default:
		return StatusCompleted
	}
}

// Position is one contested seat on an election's ballot.
type Position struct {
	ID         uuid.UUID
	ElectionID uuid.UUID
	Name       string
	CreatedAt  time.Time
}

// Candidate runs for one position.
type Candidate struct {
	ID         uuid.UUID
	PositionID uuid.UUID
	Name       string
	CreatedAt  time.Time
}

// ProvisionalTally is one candidate's vote count at results entry.
type ProvisionalTally struct {
	PositionID  uuid.UUID
	CandidateID uuid.UUID
	Votes       int64
}
