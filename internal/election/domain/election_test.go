package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func boundedElection() *Election {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	return &Election{
		ID:                   uuid.Must(uuid.NewV7()),
		Name:                 "student council 2026",
		Status:               StatusScheduled,
		CurrentPhase:         PhaseRegistration,
		RegistrationStartsAt: base,
		NominationStartsAt:   base.AddDate(0, 0, 7),
		CampaignStartsAt:     base.AddDate(0, 0, 14),
		VotingStartsAt:       base.AddDate(0, 0, 21),
		VotingEndsAt:         base.AddDate(0, 0, 23),
	}
}

func TestPhaseFor(t *testing.T) {
	e := boundedElection()

	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before nomination", e.RegistrationStartsAt.Add(time.Hour), PhaseRegistration},
		{"well before registration still maps to registration", e.RegistrationStartsAt.Add(-24 * time.Hour), PhaseRegistration},
		{"nomination boundary is inclusive", e.NominationStartsAt, PhaseNomination},
		{"inside nomination", e.NominationStartsAt.Add(time.Hour), PhaseNomination},
		{"campaign boundary", e.CampaignStartsAt, PhaseCampaign},
		{"voting start boundary", e.VotingStartsAt, PhaseVoting},
		{"one second before voting ends", e.VotingEndsAt.Add(-time.Second), PhaseVoting},
		{"voting end boundary enters results", e.VotingEndsAt, PhaseResults},
		{"long after voting", e.VotingEndsAt.AddDate(0, 1, 0), PhaseResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhaseFor(e, tt.now))
		})
	}
}

func TestPhaseFor_Deterministic(t *testing.T) {
	e := boundedElection()
	now := e.VotingStartsAt.Add(time.Hour)

	first := PhaseFor(e, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, PhaseFor(e, now))
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusScheduled, StatusFor(PhaseRegistration))
	assert.Equal(t, StatusScheduled, StatusFor(PhaseNomination))
	assert.Equal(t, StatusScheduled, StatusFor(PhaseCampaign))
	assert.Equal(t, StatusActive, StatusFor(PhaseVoting))
	assert.Equal(t, StatusActive, StatusFor(PhaseResults))
	assert.Equal(t, StatusCompleted, StatusFor(PhaseCompleted))
}

func TestElection_Terminal(t *testing.T) {
	e := boundedElection()
	assert.False(t, e.Terminal())

	e.Status = StatusCompleted
	assert.True(t, e.Terminal())

	e.Status = StatusCancelled
	assert.True(t, e.Terminal())
}
