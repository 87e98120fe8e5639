// Package domain defines the audit log domain model and risk classification.
// Every security-relevant outcome in the system, success or failure, is recorded
// as one immutable AuditLog entry with a computed risk score.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the audited operation category. Risk scoring keys off it.
type Action string

const (
	// ActionSecretCodeValidate covers secret code submission outcomes.
	ActionSecretCodeValidate Action = "secret_code_validate"

	// ActionSecretCodeLockout is emitted when a code enters the locked state.
	ActionSecretCodeLockout Action = "secret_code_lockout"

	// ActionSecretCodeIssue covers officer/automated code issuance.
	ActionSecretCodeIssue Action = "secret_code_issue"

	// ActionEligibilityCheck covers eligibility grant decisions.
	ActionEligibilityCheck Action = "eligibility_check"

	// ActionVoteCast covers ballot persistence outcomes.
	ActionVoteCast Action = "vote_cast"

	// ActionVoteVerify, ActionVoteCount, ActionVoteDispute, ActionVoteResolve and
	// ActionVoteInvalidate cover post-cast ballot lifecycle transitions.
	ActionVoteVerify     Action = "vote_verify"
	ActionVoteCount      Action = "vote_count"
	ActionVoteDispute    Action = "vote_dispute"
	ActionVoteResolve    Action = "vote_dispute_resolve"
	ActionVoteInvalidate Action = "vote_invalidate"

	// ActionRateLimitExceeded is emitted when the rate guard throttles a caller.
	ActionRateLimitExceeded Action = "rate_limit_exceeded"

	// ActionSecurityEvent covers advisory anomaly signals
	// (MULTIPLE_FAILED_ATTEMPTS, REQUEST_BURST, OFF_HOURS_ACTIVITY).
	ActionSecurityEvent Action = "security_event"

	// ActionPhaseTransition covers scheduler-driven election phase changes.
	ActionPhaseTransition Action = "election_phase_transition"

	// ActionResultsDispatch covers provisional results notification dispatch.
	ActionResultsDispatch Action = "results_dispatch"
)

// RiskLevel bands a risk score for filtering and alerting.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// AnonymousActor is the well-known placeholder for unauthenticated actors.
var AnonymousActor = uuid.Nil

// RequestMeta carries request-level metadata captured with each entry.
type RequestMeta struct {
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
	Location          string
}

// AuditLog is one append-only audit trail entry. RiskScore and RiskLevel are
// always computed at write time; callers never supply them directly. Entries
// are immutable once written and expire per the retention policy.
type AuditLog struct {
	ID           uuid.UUID
	ActorID      uuid.UUID
	Action       Action
	ResourceType string
	ResourceID   string
	Success      bool
	Detail       map[string]any
	RequestMeta  RequestMeta
	RiskScore    int
	RiskLevel    RiskLevel
	Signature    []byte
	CreatedAt    time.Time
}

// ListFilter narrows audit log queries. Nil fields mean no filtering.
type ListFilter struct {
	ActorID       *uuid.UUID
	Action        *Action
	Success       *bool
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}
