package domain

import "time"

// Fixed increments applied on top of the base severity score.
const (
	failureIncrement  = 20
	offHoursIncrement = 15
	highRiskIncrement = 10
	locationIncrement = 5

	maxRiskScore = 100
	minRiskScore = 0

	// Off-hours window boundaries: activity before 06:00 or after 22:00
	// scores higher.
	offHoursMorning = 6
	offHoursEvening = 22

	// Level thresholds over the final score.
	mediumThreshold   = 40
	highThreshold     = 70
	criticalThreshold = 85
)

// baseSeverity assigns a base score per action category. Unknown actions get
// a conservative default.
var baseSeverity = map[Action]int{
	ActionSecretCodeValidate: 30,
	ActionSecretCodeLockout:  50,
	ActionSecretCodeIssue:    15,
	ActionEligibilityCheck:   20,
	ActionVoteCast:           25,
	ActionVoteVerify:         15,
	ActionVoteCount:          15,
	ActionVoteDispute:        30,
	ActionVoteResolve:        20,
	ActionVoteInvalidate:     40,
	ActionRateLimitExceeded:  40,
	ActionSecurityEvent:      45,
	ActionPhaseTransition:    10,
	ActionResultsDispatch:    10,
}

const defaultBaseSeverity = 10

// highRiskActions are categories whose membership alone adds to the score.
var highRiskActions = map[Action]bool{
	ActionSecretCodeValidate: true,
	ActionSecretCodeLockout:  true,
	ActionVoteInvalidate:     true,
	ActionRateLimitExceeded:  true,
	ActionSecurityEvent:      true,
}

// minLevelByAction lets the severity table force a floor on the risk level
// for known action types, independent of the numeric thresholds.
var minLevelByAction = map[Action]RiskLevel{
	ActionSecretCodeLockout: RiskLevelHigh,
	ActionSecurityEvent:     RiskLevelMedium,
	ActionVoteInvalidate:    RiskLevelMedium,
}

// ComputeRiskScore derives the risk score and level for an audited action.
// The function is pure: same inputs always produce the same output, and it
// has no storage dependency. Score composition:
//
//	base severity for the action category
//	+20 if the operation failed
//	+15 if the timestamp falls off-hours (hour < 6 or > 22)
//	+10 if the action belongs to a high-risk category
//	+5  if location metadata is present
//
// clamped to [0,100]. The level is banded from the score, with a per-action
// floor for known severe categories.
func ComputeRiskScore(action Action, success bool, at time.Time, meta RequestMeta) (int, RiskLevel) {
	score, ok := baseSeverity[action]
	if !ok {
		score = defaultBaseSeverity
	}

	if !success {
		score += failureIncrement
	}

	hour := at.UTC().Hour()
	if hour < offHoursMorning || hour > offHoursEvening {
		score += offHoursIncrement
	}

	if highRiskActions[action] {
		score += highRiskIncrement
	}

	if meta.Location != "" {
		score += locationIncrement
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}
	if score < minRiskScore {
		score = minRiskScore
	}

	level := levelForScore(score)
	if floor, ok := minLevelByAction[action]; ok && levelRank(floor) > levelRank(level) {
		level = floor
	}

	return score, level
}

// IsOffHours reports whether the timestamp falls outside normal activity hours.
// Shared with the anomaly heuristics of the rate guard.
func IsOffHours(at time.Time) bool {
	hour := at.UTC().Hour()
	return hour < offHoursMorning || hour > offHoursEvening
}

func levelForScore(score int) RiskLevel {
	switch {
	case score >= criticalThreshold:
		return RiskLevelCritical
	case score >= highThreshold:
		return RiskLevelHigh
	case score >= mediumThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

func levelRank(level RiskLevel) int {
	switch level {
	case RiskLevelCritical:
		return 3
	case RiskLevelHigh:
		return 2
	case RiskLevelMedium:
		return 1
	default:
		return 0
	}
}
