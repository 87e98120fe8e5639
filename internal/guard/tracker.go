package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
)

const (
	// DefaultMaxAuthFailures failed validations inside the failure window
	// raise a security event for the voter.
	DefaultMaxAuthFailures   = 5
	DefaultAuthFailureWindow = 15 * time.Minute

	// DefaultBurstThreshold requests inside BurstWindow from one voter raise
	// an advisory burst event.
	DefaultBurstThreshold = 20
	BurstWindow           = time.Minute

	// offHoursStart/offHoursEnd bound the normal activity hours in UTC.
	offHoursStart  = 22
	offHoursEnd    = 6
	offHoursWindow = time.Hour
)

// Security event types recorded by the tracker.
const (
	EventMultipleFailedAttempts = "MULTIPLE_FAILED_ATTEMPTS"
	EventBurstActivity          = "BURST_ACTIVITY"
	EventOffHoursActivity       = "OFF_HOURS_ACTIVITY"
)

// AuditRecorder appends audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, input auditUseCase.RecordInput) *auditDomain.AuditLog
}

// SecurityTracker aggregates per-voter signals into advisory security
// events. All its methods are best-effort and never fail callers.
type SecurityTracker struct {
	counters CounterStore
	audit    AuditRecorder
	clk      clock.Clock
	logger   *slog.Logger

	maxAuthFailures   int64
	authFailureWindow time.Duration
	burstThreshold    int64
}

// NewSecurityTracker creates a tracker with the given thresholds.
// Non-positive thresholds fall back to the package defaults.
func NewSecurityTracker(
	counters CounterStore,
	audit AuditRecorder,
	clk clock.Clock,
	logger *slog.Logger,
	maxAuthFailures int,
	authFailureWindow time.Duration,
	burstThreshold int,
) *SecurityTracker {
	if maxAuthFailures <= 0 {
		maxAuthFailures = DefaultMaxAuthFailures
	}
	if authFailureWindow <= 0 {
		authFailureWindow = DefaultAuthFailureWindow
	}
	if burstThreshold <= 0 {
		burstThreshold = DefaultBurstThreshold
	}

	return &SecurityTracker{
		counters:          counters,
		audit:             audit,
		clk:               clk,
		logger:            logger,
		maxAuthFailures:   int64(maxAuthFailures),
		authFailureWindow: authFailureWindow,
		burstThreshold:    int64(burstThreshold),
	}
}

// RecordAuthFailure counts one failed credential validation for the voter
// and for the source address. Reaching either threshold raises a
// MULTIPLE_FAILED_ATTEMPTS event; every further failure inside the window
// keeps the event stream current.
func (t *SecurityTracker) RecordAuthFailure(ctx context.Context, voterID uuid.UUID, meta auditDomain.RequestMeta) {
	count, err := t.counters.Incr(ctx, "auth_fail:"+voterID.String(), t.authFailureWindow)
	if err != nil {
		t.logger.Warn("failed to count auth failure",
			slog.String("voter_id", voterID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	if count >= t.maxAuthFailures {
		t.emit(ctx, voterID, EventMultipleFailedAttempts, meta, map[string]any{
			"failures":       count,
			"window_minutes": int(t.authFailureWindow.Minutes()),
		})
	}

	if meta.IPAddress == "" {
		return
	}

	// The source address aggregates across voters, so failures sprayed over
	// many accounts from one address still surface.
	ipCount, err := t.counters.Incr(ctx, "auth_fail_ip:"+meta.IPAddress, t.authFailureWindow)
	if err != nil {
		t.logger.Warn("failed to count auth failure by source address",
			slog.String("ip_address", meta.IPAddress),
			slog.String("error", err.Error()),
		)
		return
	}

	if ipCount >= t.maxAuthFailures {
		t.emit(ctx, voterID, EventMultipleFailedAttempts, meta, map[string]any{
			"failures":       ipCount,
			"window_minutes": int(t.authFailureWindow.Minutes()),
			"source_ip":      meta.IPAddress,
		})
	}
}

// ObserveRequest applies the burst and off-hours heuristics to one voter
// request. Events are advisory and never block the request.
func (t *SecurityTracker) ObserveRequest(ctx context.Context, voterID uuid.UUID, meta auditDomain.RequestMeta) {
	now := t.clk.Now()

	count, err := t.counters.Incr(ctx, "burst:"+voterID.String(), BurstWindow)
	if err != nil {
		t.logger.Warn("failed to count request burst",
			slog.String("voter_id", voterID.String()),
			slog.String("error", err.Error()),
		)
	} else if count == t.burstThreshold {
		t.emit(ctx, voterID, EventBurstActivity, meta, map[string]any{
			"requests":       count,
			"window_seconds": int(BurstWindow.Seconds()),
		})
	}

	hour := now.Hour()
	if hour < offHoursEnd || hour > offHoursStart {
		count, err := t.counters.Incr(ctx, "off_hours:"+voterID.String(), offHoursWindow)
		if err != nil {
			t.logger.Warn("failed to count off-hours activity",
				slog.String("voter_id", voterID.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		// One advisory entry per voter and hour is enough.
		if count == 1 {
			t.emit(ctx, voterID, EventOffHoursActivity, meta, map[string]any{
				"hour_utc": hour,
			})
		}
	}
}

func (t *SecurityTracker) emit(
	ctx context.Context,
	voterID uuid.UUID,
	eventType string,
	meta auditDomain.RequestMeta,
	detail map[string]any,
) {
	detail["event_type"] = eventType

	t.audit.Record(ctx, auditUseCase.RecordInput{
		ActorID:      voterID,
		Action:       auditDomain.ActionSecurityEvent,
		ResourceType: "voter",
		ResourceID:   voterID.String(),
		Success:      false,
		Detail:       detail,
		RequestMeta:  meta,
	})
}
