// Package typing derives start/stop typing signals from raw input activity
// and tracks the remote peer's typing indicator.
//
// The local half (Notifier) is edge-triggered: one start signal per typing
// burst and one stop signal when the user pauses or clears the input,
// regardless of how many keystrokes arrive in between. The remote half
// (Indicator) consumes the peer's start/stop events and applies a safety
// timeout so a lost stop event cannot leave the indicator stuck.
package typing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDebounceDelay is the pause window after the last keystroke before
// the user is considered to have stopped typing.
const DefaultDebounceDelay = 1000 * time.Millisecond

// Notifier turns raw input updates into at most one start and one stop
// signal per typing burst.
//
// The debounced value trails the raw value by the debounce delay, restarted
// on every keystroke. Start fires exactly when the raw input becomes
// non-empty while the debounced value is still empty. Stop fires on two
// edges: the input is cleared, or the debounced value catches up to a
// non-empty raw value (the user has paused). An active flag guarantees the
// two stop edges never both fire for the same burst.
//
// Callbacks run without the internal lock held; the stop callback may run
// from the debounce timer's goroutine.
type Notifier struct {
	mu        sync.Mutex
	delay     time.Duration
	tp        TimeProvider
	timer     Timer
	raw       string
	debounced string
	active    bool

	onStart func()
	onStop  func()
}

// NewNotifier creates a Notifier firing onStart and onStop. A non-positive
// delay falls back to DefaultDebounceDelay; a nil TimeProvider falls back
// to the system clock.
func NewNotifier(delay time.Duration, tp TimeProvider, onStart, onStop func()) *Notifier {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Notifier{
		delay:   delay,
		tp:      getTimeProvider(tp),
		onStart: onStart,
		onStop:  onStop,
	}
}

// Input records the current raw input value. Call it on every change.
func (n *Notifier) Input(text string) {
	n.mu.Lock()

	prev := n.raw
	n.raw = text
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}

	var fireStart, fireStop bool
	switch {
	case text == "":
		n.debounced = ""
		if n.active {
			n.active = false
			fireStop = true
		}
	default:
		if prev == "" && n.debounced == "" && !n.active {
			n.active = true
			fireStart = true
		}
		n.timer = n.tp.AfterFunc(n.delay, n.settle)
	}
	n.mu.Unlock()

	if fireStart && n.onStart != nil {
		n.onStart()
	}
	if fireStop && n.onStop != nil {
		n.onStop()
	}
}

// settle runs when the debounce window elapses with no further keystrokes:
// the debounced value catches up to the raw value, and a non-empty pause
// ends the burst.
func (n *Notifier) settle() {
	n.mu.Lock()
	n.timer = nil
	n.debounced = n.raw
	fireStop := n.raw != "" && n.active
	if fireStop {
		n.active = false
	}
	n.mu.Unlock()

	if fireStop && n.onStop != nil {
		logrus.Debug("typing burst settled")
		n.onStop()
	}
}

// Flush clears all input state and unconditionally fires the stop signal.
// Called when a message is sent: the input box empties and the peer is told
// typing has stopped, whether or not a burst was active.
func (n *Notifier) Flush() {
	n.mu.Lock()
	n.raw = ""
	n.debounced = ""
	n.active = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()

	if n.onStop != nil {
		n.onStop()
	}
}

// Reset clears all input state without firing any signal. Called on
// conversation switch, where a stop signal would address the wrong thread.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.raw = ""
	n.debounced = ""
	n.active = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// Active reports whether a typing burst is in progress.
func (n *Notifier) Active() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}
