// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	appvalidation "github.com/openballot/openballot/internal/validation"
)

// CastVoteRequest contains the parameters for casting a ballot. The session
// token is minted server-side and returned in the response.
type CastVoteRequest struct {
	VoterID     string `json:"voter_id"`
	ElectionID  string `json:"election_id"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
	SecretCode  string `json:"secret_code"`
}

// Validate checks if the cast vote request is valid.
func (r *CastVoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VoterID, validation.Required, appvalidation.UUIDString),
		validation.Field(&r.ElectionID, validation.Required, appvalidation.UUIDString),
		validation.Field(&r.PositionID, validation.Required, appvalidation.UUIDString),
		validation.Field(&r.CandidateID, validation.Required, appvalidation.UUIDString),
		validation.Field(&r.SecretCode, validation.Required, appvalidation.SecretCode),
	)
}

// DisputeVoteRequest contains the parameters for disputing a vote.
type DisputeVoteRequest struct {
	Reason      string `json:"reason"`
	SubmittedBy string `json:"submitted_by"`
}

// Validate checks if the dispute vote request is valid.
func (r *DisputeVoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Required, appvalidation.NotBlank),
		validation.Field(&r.SubmittedBy, validation.Required, appvalidation.NotBlank),
	)
}

// ResolveDisputeRequest contains the parameters for resolving a dispute.
// CountBallot decides whether the ballot is counted or invalidated.
type ResolveDisputeRequest struct {
	CountBallot *bool  `json:"count_ballot"`
	Actor       string `json:"actor"`
}

// Validate checks if the resolve dispute request is valid.
func (r *ResolveDisputeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CountBallot, validation.NotNil),
		validation.Field(&r.Actor, validation.Required, appvalidation.NotBlank),
	)
}

// TransitionVoteRequest contains the acting officer for verify, count and
// invalidate transitions.
type TransitionVoteRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// Validate checks if the transition request is valid.
func (r *TransitionVoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Actor, validation.Required, appvalidation.NotBlank),
	)
}
