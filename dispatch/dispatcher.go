// Package dispatch is the typed publish/subscribe layer between the
// transport channel and the state components. It decouples consumers from
// the channel: handlers are registered by event name, a single reader
// goroutine drains the channel and invokes them serially, and outbound
// events are fire-and-forget emits.
//
// Handler identity is not conversation-scoped by the transport, so whoever
// owns per-conversation handlers must Unsubscribe them on selection change
// before subscribing the next generation; otherwise one server event is
// delivered to two generations of handlers.
package dispatch

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flowchat-im/flowchat/transport"
)

// Handler consumes the raw JSON payload of one inbound event.
type Handler func(data json.RawMessage)

// Dispatcher routes inbound envelopes to subscribed handlers and sends
// outbound events over the attached channel. Safe for concurrent use;
// inbound handlers themselves run serially on the reader goroutine.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	ch       transport.Channel
}

// NewDispatcher creates a Dispatcher with no channel attached. Emit before
// Attach is a silent no-op, matching the error taxonomy for a channel that
// is not open.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
	}
}

// Attach binds the dispatcher to a live channel and starts draining its
// events. The reader goroutine exits when the channel's event stream
// closes.
func (d *Dispatcher) Attach(ch transport.Channel) {
	d.mu.Lock()
	d.ch = ch
	d.mu.Unlock()

	go func() {
		for env := range ch.Events() {
			d.deliver(env)
		}
		logrus.Debug("dispatcher reader stopped")
	}()
}

// Detach drops the channel reference. Subsequent emits are silent no-ops.
// The reader goroutine winds down when the detached channel is closed.
func (d *Dispatcher) Detach() {
	d.mu.Lock()
	d.ch = nil
	d.mu.Unlock()
}

// Subscribe registers a handler for the named event. Multiple handlers per
// name are delivered in registration order.
func (d *Dispatcher) Subscribe(event string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], h)
}

// Unsubscribe removes all handlers for the named event.
func (d *Dispatcher) Unsubscribe(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, event)
}

// Emit sends one event to the server. It is fire-and-forget: the caller
// gets no acknowledgement and no error. Without a live channel, or when the
// write fails, the event is dropped with a log line.
func (d *Dispatcher) Emit(event string, payload interface{}) {
	d.mu.Lock()
	ch := d.ch
	d.mu.Unlock()

	if ch == nil {
		logrus.WithFields(logrus.Fields{
			"event": event,
		}).Debug("emit with no channel, dropped")
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event": event,
		}).Warn("emit payload marshal failed")
		return
	}

	env := transport.Envelope{
		Event:       event,
		Data:        data,
		ClientMsgID: uuid.NewString(),
	}
	if err := ch.Send(env); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event": event,
		}).Warn("emit failed")
	}
}

// deliver invokes the handlers for one inbound envelope. Events with no
// subscriber are dropped. A handler snapshot is taken under the lock so
// handlers may themselves subscribe or unsubscribe.
func (d *Dispatcher) deliver(env transport.Envelope) {
	d.mu.Lock()
	hs := make([]Handler, len(d.handlers[env.Event]))
	copy(hs, d.handlers[env.Event])
	d.mu.Unlock()

	if len(hs) == 0 {
		logrus.WithFields(logrus.Fields{
			"event": env.Event,
		}).Debug("inbound event with no subscriber, dropped")
		return
	}
	for _, h := range hs {
		h(env.Data)
	}
}
