// Package transport owns the live duplex connection to the message server:
// the Channel abstraction, its websocket implementation, and the Manager
// that ties channel lifecycle to the session.
package transport

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Envelope is the wire frame for every event in both directions: a named
// event plus its JSON payload. Outbound envelopes additionally carry a
// client-generated correlation id so a server echo can be matched in logs.
type Envelope struct {
	Event       string          `json:"event"`
	Data        json.RawMessage `json:"data,omitempty"`
	ClientMsgID string          `json:"clientMsgId,omitempty"`
}

// Channel is a live bidirectional event connection. Send is fire-and-forget
// from the caller's perspective: there is no acknowledgement contract, only
// transport-level FIFO on the single connection. Events is closed when the
// connection dies or Close is called.
type Channel interface {
	Send(env Envelope) error
	Events() <-chan Envelope
	Close() error
}

// ErrChannelClosed is returned by Send after the channel has been closed.
var ErrChannelClosed = errors.New("transport: channel closed")

// ErrNoToken is returned by Manager.Open when no bearer token is available.
var ErrNoToken = errors.New("transport: no auth token")
