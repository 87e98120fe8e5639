package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/openballot/openballot/internal/audit/domain"
	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
)

// mockAuditRecorder is a mock implementation of AuditRecorder for testing.
type mockAuditRecorder struct {
	mock.Mock
}

func (m *mockAuditRecorder) Record(ctx context.Context, input auditUseCase.RecordInput) *auditDomain.AuditLog {
	m.Called(ctx, input)
	return &auditDomain.AuditLog{}
}

// mockCounterStore is a mock implementation of CounterStore for testing.
type mockCounterStore struct {
	mock.Mock
}

func (m *mockCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Error(1)
}

func newTrackerFixture(clk clock.Clock) (*SecurityTracker, *MemoryCounterStore, *mockAuditRecorder) {
	counters := NewMemoryCounterStore(clk)
	audit := &mockAuditRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSecurityTracker(counters, audit, clk, logger, 0, 0, 0), counters, audit
}

func securityEventMatcher(eventType string) any {
	return mock.MatchedBy(func(in auditUseCase.RecordInput) bool {
		return in.Action == auditDomain.ActionSecurityEvent &&
			in.Detail["event_type"] == eventType
	})
}

func TestSecurityTracker_RecordAuthFailure(t *testing.T) {
	ctx := context.Background()
	voterID := uuid.Must(uuid.NewV7())
	meta := auditDomain.RequestMeta{IPAddress: "10.0.0.1"}

	t.Run("below the threshold no event is raised", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		for i := 0; i < DefaultMaxAuthFailures-1; i++ {
			tracker.RecordAuthFailure(ctx, voterID, meta)
		}

		audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("reaching the threshold raises a failed attempts event", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		// The fifth failure trips the voter and the source address counters.
		audit.On("Record", ctx, securityEventMatcher(EventMultipleFailedAttempts)).Return(nil).Twice()

		for i := 0; i < DefaultMaxAuthFailures; i++ {
			tracker.RecordAuthFailure(ctx, voterID, meta)
		}

		audit.AssertExpectations(t)
	})

	t.Run("failures spread across voters from one address raise an event", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		audit.On("Record", ctx, mock.MatchedBy(func(in auditUseCase.RecordInput) bool {
			return in.Detail["event_type"] == EventMultipleFailedAttempts &&
				in.Detail["source_ip"] == meta.IPAddress
		})).Return(nil).Once()

		for i := 0; i < DefaultMaxAuthFailures; i++ {
			tracker.RecordAuthFailure(ctx, uuid.Must(uuid.NewV7()), meta)
		}

		audit.AssertExpectations(t)
		audit.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("a blank source address only counts the voter", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		audit.On("Record", ctx, securityEventMatcher(EventMultipleFailedAttempts)).Return(nil).Once()

		for i := 0; i < DefaultMaxAuthFailures; i++ {
			tracker.RecordAuthFailure(ctx, voterID, auditDomain.RequestMeta{})
		}

		audit.AssertExpectations(t)
		audit.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("failures outside the window do not accumulate", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		for i := 0; i < DefaultMaxAuthFailures-1; i++ {
			tracker.RecordAuthFailure(ctx, voterID, meta)
		}
		clk.Advance(DefaultAuthFailureWindow + time.Minute)
		tracker.RecordAuthFailure(ctx, voterID, meta)

		audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("counter failures are swallowed", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		counters := &mockCounterStore{}
		audit := &mockAuditRecorder{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		tracker := NewSecurityTracker(counters, audit, clk, logger, 0, 0, 0)

		counters.On("Incr", ctx, mock.Anything, mock.Anything).
			Return(int64(0), errors.New("backend down")).Once()

		tracker.RecordAuthFailure(ctx, voterID, meta)

		audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}

func TestSecurityTracker_ObserveRequest(t *testing.T) {
	ctx := context.Background()
	voterID := uuid.Must(uuid.NewV7())
	meta := auditDomain.RequestMeta{IPAddress: "10.0.0.1"}

	t.Run("burst threshold raises one advisory event", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		audit.On("Record", ctx, securityEventMatcher(EventBurstActivity)).Return(nil).Once()

		for i := 0; i < DefaultBurstThreshold+3; i++ {
			tracker.ObserveRequest(ctx, voterID, meta)
		}

		audit.AssertExpectations(t)
		audit.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("first off-hours request raises an advisory event", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		audit.On("Record", ctx, securityEventMatcher(EventOffHoursActivity)).Return(nil).Once()

		tracker.ObserveRequest(ctx, voterID, meta)
		tracker.ObserveRequest(ctx, voterID, meta)

		audit.AssertExpectations(t)
		audit.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("daytime requests raise no off-hours event", func(t *testing.T) {
		clk := &clock.Fixed{Instant: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)}
		tracker, _, audit := newTrackerFixture(clk)

		tracker.ObserveRequest(ctx, voterID, meta)

		audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}
