package transport

import (
	"encoding/json"
	"sync"
)

// MemChannel is an in-memory Channel for tests and embedded servers. Sent
// envelopes are recorded for inspection and inbound events are injected
// with Deliver.
type MemChannel struct {
	mu     sync.Mutex
	sent   []Envelope
	events chan Envelope
	closed bool
}

// NewMemChannel creates an open MemChannel.
func NewMemChannel() *MemChannel {
	return &MemChannel{
		events: make(chan Envelope, 64),
	}
}

// MemDialer returns a Dialer handing out the given channel, for wiring a
// MemChannel through a Manager.
func MemDialer(ch *MemChannel) Dialer {
	return func(url, token string) (Channel, error) {
		return ch, nil
	}
}

// Send records the envelope.
func (c *MemChannel) Send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	c.sent = append(c.sent, env)
	return nil
}

// Events returns the inbound stream.
func (c *MemChannel) Events() <-chan Envelope {
	return c.events
}

// Close closes the inbound stream. Safe to call more than once.
func (c *MemChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

// Deliver injects an inbound event, marshaling payload as the envelope
// data. It blocks if the event buffer is full.
func (c *MemChannel) Deliver(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.events <- Envelope{Event: event, Data: data}
	return nil
}

// Sent returns a copy of all envelopes sent so far.
func (c *MemChannel) Sent() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}

// SentNamed returns the sent envelopes whose event matches name.
func (c *MemChannel) SentNamed(name string) []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Envelope
	for _, env := range c.sent {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}
