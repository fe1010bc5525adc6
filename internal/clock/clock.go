// Package clock provides an abstraction for time operations to improve testability.
// Attestation timestamps are taken from a Clock so tests can pin them.
package clock

import "time"

// Clock is an interface for time operations.
// This allows code to be tested with mock clocks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock in UTC.
// The monotonic reading is stripped so the value round-trips through text encodings.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that always returns the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Ensure implementations satisfy Clock.
var (
	_ Clock = RealClock{}
	_ Clock = Fixed{}
)
