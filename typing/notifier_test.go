package typing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signalCount struct {
	starts int
	stops  int
}

func newCountingNotifier(clock *fakeClock) (*Notifier, *signalCount) {
	c := &signalCount{}
	n := NewNotifier(DefaultDebounceDelay, clock,
		func() { c.starts++ },
		func() { c.stops++ })
	return n, c
}

// TestNotifier_EdgeTriggered verifies the reference sequence
// "" -> "h" -> "he" -> (debounce) -> "" produces exactly one start and one
// stop, regardless of intermediate keystrokes.
func TestNotifier_EdgeTriggered(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Input("h")
	n.Input("he")
	clock.fire() // debounce catches up: the user paused
	n.Input("")

	assert.Equal(t, 1, c.starts)
	assert.Equal(t, 1, c.stops)
}

// TestNotifier_StartOncePerBurst verifies rapid keystrokes never repeat the
// start signal.
func TestNotifier_StartOncePerBurst(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	for _, v := range []string{"h", "he", "hel", "hell", "hello"} {
		n.Input(v)
	}
	assert.Equal(t, 1, c.starts)
	assert.Equal(t, 0, c.stops)
}

// TestNotifier_StopOnClear verifies clearing the input ends the burst with
// a single stop.
func TestNotifier_StopOnClear(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Input("h")
	n.Input("")

	assert.Equal(t, 1, c.starts)
	assert.Equal(t, 1, c.stops)
	assert.False(t, n.Active())
}

// TestNotifier_StopOnPause verifies the debounce catch-up while non-empty
// emits stop, and a later clear does not emit a second one.
func TestNotifier_StopOnPause(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Input("h")
	clock.fire()
	assert.Equal(t, 1, c.stops)

	n.Input("")
	assert.Equal(t, 1, c.stops, "clear after pause must not double the stop")
}

// TestNotifier_NoStartAfterPauseUntilCleared verifies that once the
// debounced value is non-empty, continued typing does not restart the
// burst; only clearing the input re-arms the start edge.
func TestNotifier_NoStartAfterPauseUntilCleared(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Input("h")
	clock.fire()
	n.Input("he")
	n.Input("heh")
	assert.Equal(t, 1, c.starts)

	n.Input("")
	n.Input("x")
	assert.Equal(t, 2, c.starts)
}

// TestNotifier_EmptyInputNoSignals verifies feeding empty input to an idle
// notifier emits nothing.
func TestNotifier_EmptyInputNoSignals(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Input("")
	n.Input("")

	assert.Equal(t, 0, c.starts)
	assert.Equal(t, 0, c.stops)
}

// TestNotifier_FlushAlwaysStops verifies Flush fires stop unconditionally,
// as a send does.
func TestNotifier_FlushAlwaysStops(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Flush()
	assert.Equal(t, 1, c.stops)

	n.Input("h")
	n.Flush()
	assert.Equal(t, 2, c.stops)
	assert.False(t, n.Active())
}

// TestNotifier_ResetIsSilent verifies Reset clears state without signals.
func TestNotifier_ResetIsSilent(t *testing.T) {
	clock := newFakeClock()
	n, c := newCountingNotifier(clock)

	n.Input("h")
	n.Reset()

	assert.Equal(t, 1, c.starts)
	assert.Equal(t, 0, c.stops)
	assert.False(t, n.Active())

	// A stale debounce timer must not fire after Reset.
	clock.fire()
	assert.Equal(t, 0, c.stops)

	// The start edge is re-armed.
	n.Input("x")
	assert.Equal(t, 2, c.starts)
}
