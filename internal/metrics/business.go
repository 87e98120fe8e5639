package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics defines the interface for recording business operation metrics.
// Implementations track operation counts and durations for observability across
// the voting domains (secretcode, eligibility, voting, audit, election).
type BusinessMetrics interface {
	// RecordOperation records a business operation with its status.
	// Domain examples: "voting", "secretcode", "election"
	// Operation examples: "cast_vote", "validate_code", "reconcile"
	// Status examples: "success", "error"
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of a business operation with its status.
	// Duration is recorded in seconds as a histogram for percentile calculations.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordRiskScore records the computed risk score of an audited action.
	// Scores feed a histogram so alerting can track the high-risk tail.
	RecordRiskScore(ctx context.Context, action string, score int)

	// RecordSecurityEvent counts anomaly and security events by type.
	RecordSecurityEvent(ctx context.Context, eventType string)
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	riskScoreHisto   metric.Int64Histogram
	securityCounter  metric.Int64Counter
}

// NewBusinessMetrics creates a new BusinessMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "openballot").
// Returns error if meters cannot be initialized.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	riskScoreHisto, err := meter.Int64Histogram(
		fmt.Sprintf("%s_risk_score", namespace),
		metric.WithDescription("Computed risk scores of audited actions"),
		metric.WithUnit("{score}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create risk score histogram: %w", err)
	}

	securityCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_security_events_total", namespace),
		metric.WithDescription("Total number of security and anomaly events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create security event counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		riskScoreHisto:   riskScoreHisto,
		securityCounter:  securityCounter,
	}, nil
}

// RecordOperation increments the operation counter with domain, operation, and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with domain, operation, and status labels.
func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordRiskScore records the risk score with the action label.
func (b *businessMetrics) RecordRiskScore(ctx context.Context, action string, score int) {
	b.riskScoreHisto.Record(ctx, int64(score),
		metric.WithAttributes(
			attribute.String("action", action),
		),
	)
}

// RecordSecurityEvent increments the security event counter with the event type label.
func (b *businessMetrics) RecordSecurityEvent(ctx context.Context, eventType string) {
	b.securityCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event_type", eventType),
		),
	)
}
