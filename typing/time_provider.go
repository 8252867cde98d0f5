package typing

import "time"

// TimeProvider abstracts time and timer creation so debounce and timeout
// behavior can be driven deterministically in tests.
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc schedules f to run after d and returns the pending timer.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of time.Timer behavior the package relies on.
type Timer interface {
	// Stop cancels the timer, reporting whether it was still pending.
	Stop() bool
}

// RealTimeProvider implements TimeProvider using the actual system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f using the standard library.
func (RealTimeProvider) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// getTimeProvider returns tp if non-nil, otherwise the real clock.
func getTimeProvider(tp TimeProvider) TimeProvider {
	if tp != nil {
		return tp
	}
	return RealTimeProvider{}
}
