package dto

import (
	"time"

	"github.com/google/uuid"

	votingDomain "github.com/openballot/openballot/internal/voting/domain"
)

// VoteResponse represents a vote in API responses. The content hash is
// returned as the voter's receipt; the secret code and grant internals are
// never exposed.
type VoteResponse struct {
	ID                 uuid.UUID `json:"id"`
	ElectionID         uuid.UUID `json:"election_id"`
	PositionID         uuid.UUID `json:"position_id"`
	CandidateID        uuid.UUID `json:"candidate_id"`
	VoterID            uuid.UUID `json:"voter_id"`
	SessionToken       string    `json:"session_token"`
	ContentHash        string    `json:"content_hash"`
	Status             string    `json:"status"`
	DisputeReason      string    `json:"dispute_reason,omitempty"`
	DisputeSubmittedBy string    `json:"dispute_submitted_by,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// MapVoteToResponse converts a domain vote to an API response.
func MapVoteToResponse(vote *votingDomain.Vote) VoteResponse {
	return VoteResponse{
		ID:                 vote.ID,
		ElectionID:         vote.ElectionID,
		PositionID:         vote.PositionID,
		CandidateID:        vote.CandidateID,
		VoterID:            vote.VoterID,
		SessionToken:       vote.SessionToken,
		ContentHash:        vote.ContentHash,
		Status:             string(vote.Status),
		DisputeReason:      vote.DisputeReason,
		DisputeSubmittedBy: vote.DisputeSubmittedBy,
		CreatedAt:          vote.CreatedAt,
		UpdatedAt:          vote.UpdatedAt,
	}
}

// VoteAuditEntryResponse represents one per-vote trail row in API responses.
type VoteAuditEntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	VoteID    uuid.UUID      `json:"vote_id"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListVoteAuditTrailResponse represents a vote's trail in API responses.
type ListVoteAuditTrailResponse struct {
	Data []VoteAuditEntryResponse `json:"data"`
}

// MapAuditTrailToListResponse converts a vote's trail to a list API response.
func MapAuditTrailToListResponse(entries []*votingDomain.VoteAuditEntry) ListVoteAuditTrailResponse {
	data := make([]VoteAuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, VoteAuditEntryResponse{
			ID:        entry.ID,
			VoteID:    entry.VoteID,
			Action:    entry.Action,
			Actor:     entry.Actor,
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt,
		})
	}
	return ListVoteAuditTrailResponse{Data: data}
}
