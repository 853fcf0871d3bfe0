// Package clock abstracts local time so the background loops (lease and
// E-Stop keepalives, the time-sync keeper) can be driven deterministically in
// tests.
package clock

import "time"

// Clock is the local time source used by the SDK.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Sleep(d time.Duration)
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current local time including its monotonic reading, so
// interval arithmetic in the loops survives wall clock steps. Wire timestamps
// are normalised to UTC by timestamppb.
func (Real) Now() time.Time {
	return time.Now()
}

// After mirrors time.After while satisfying the Clock interface.
func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep blocks for at least the supplied duration.
func (Real) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Or returns c, falling back to Real when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}

// Remaining returns how much of interval is left after the work that began at
// start, never negative.
func Remaining(c Clock, start time.Time, interval time.Duration) time.Duration {
	left := interval - c.Now().Sub(start)
	if left < 0 {
		return 0
	}
	return left
}
