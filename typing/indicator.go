package typing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultClearTimeout bounds how long a remote typing indicator survives
// without a fresh start event. A dropped stop event would otherwise leave
// the indicator stuck forever.
const DefaultClearTimeout = 6 * time.Second

// State is the advisory typing state shown to the display layer. It has no
// server-confirmed counterpart.
type State struct {
	Active bool
	Who    string
}

// Indicator tracks whether the remote party of the active conversation is
// typing. A start event arms a safety timer that clears the indicator after
// DefaultClearTimeout of silence, in addition to explicit stop events.
// Safe for concurrent use.
type Indicator struct {
	mu      sync.Mutex
	timeout time.Duration
	tp      TimeProvider
	timer   Timer
	state   State
}

// NewIndicator creates an Indicator. A non-positive timeout falls back to
// DefaultClearTimeout; a nil TimeProvider falls back to the system clock.
func NewIndicator(timeout time.Duration, tp TimeProvider) *Indicator {
	if timeout <= 0 {
		timeout = DefaultClearTimeout
	}
	return &Indicator{
		timeout: timeout,
		tp:      getTimeProvider(tp),
	}
}

// SetTyping marks who as typing and re-arms the safety timer.
func (i *Indicator) SetTyping(who string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.state = State{Active: true, Who: who}
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timer = i.tp.AfterFunc(i.timeout, i.expire)
}

// Clear resets the indicator. Called on an explicit stop event and on
// conversation switch.
func (i *Indicator) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.clearLocked()
}

func (i *Indicator) clearLocked() {
	i.state = State{}
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
}

// expire clears a stuck indicator when no stop event arrived in time.
func (i *Indicator) expire() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.state.Active {
		return
	}
	logrus.WithFields(logrus.Fields{
		"who": i.state.Who,
	}).Debug("typing indicator expired without stop event")
	i.clearLocked()
}

// State returns the current typing state.
func (i *Indicator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}
