// Package clock provides the time source used by lockout and scheduling logic.
// A single injected Clock keeps wall-clock decisions consistent and testable.
package clock

import "time"

// Clock supplies the current time. Implementations must return UTC.
type Clock interface {
	Now() time.Time
}

// systemClock reads time from the operating system.
type systemClock struct{}

// Now returns the current system time in UTC.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock creates a Clock backed by the system time.
func NewSystemClock() Clock {
	return &systemClock{}
}

// Fixed is a Clock pinned to a settable instant, for tests and replays.
type Fixed struct {
	Instant time.Time
}

// Now returns the pinned instant in UTC.
func (f *Fixed) Now() time.Time {
	return f.Instant.UTC()
}

// Advance moves the pinned instant forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.Instant = f.Instant.Add(d)
}
