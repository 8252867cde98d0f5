package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowchat-im/flowchat/transport"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSubscribe_ReceivesEvent(t *testing.T) {
	ch := transport.NewMemChannel()
	defer ch.Close()
	d := NewDispatcher()

	got := make(chan string, 1)
	d.Subscribe("ping", func(data json.RawMessage) {
		var s string
		_ = json.Unmarshal(data, &s)
		got <- s
	})
	d.Attach(ch)

	require.NoError(t, ch.Deliver("ping", "hello"))

	select {
	case s := <-got:
		assert.Equal(t, "hello", s)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
}

// TestUnsubscribe_RemovesAllHandlers verifies that after Unsubscribe no
// generation of handlers receives the event.
func TestUnsubscribe_RemovesAllHandlers(t *testing.T) {
	ch := transport.NewMemChannel()
	defer ch.Close()
	d := NewDispatcher()
	d.Attach(ch)

	calls := make(chan struct{}, 4)
	d.Subscribe("ev", func(json.RawMessage) { calls <- struct{}{} })
	d.Subscribe("ev", func(json.RawMessage) { calls <- struct{}{} })
	d.Unsubscribe("ev")

	// A fresh generation after the unsubscribe gets exactly one delivery.
	d.Subscribe("ev", func(json.RawMessage) { calls <- struct{}{} })
	require.NoError(t, ch.Deliver("ev", nil))

	waitFor(t, func() bool { return len(calls) == 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, calls, 1, "stale handlers must not see the event")
}

// TestDeliver_UnknownEventDropped verifies events with no subscriber are
// dropped without crashing the reader.
func TestDeliver_UnknownEventDropped(t *testing.T) {
	ch := transport.NewMemChannel()
	defer ch.Close()
	d := NewDispatcher()
	d.Attach(ch)

	require.NoError(t, ch.Deliver("nobody-listens", map[string]string{"x": "y"}))

	// The reader must still be alive for later events.
	got := make(chan struct{}, 1)
	d.Subscribe("after", func(json.RawMessage) { got <- struct{}{} })
	require.NoError(t, ch.Deliver("after", nil))

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("reader died on unknown event")
	}
}

func TestEmit_WithoutChannelIsNoOp(t *testing.T) {
	d := NewDispatcher()
	// Must not panic.
	d.Emit("ev", map[string]string{"a": "b"})
}

func TestEmit_SendsEnvelope(t *testing.T) {
	ch := transport.NewMemChannel()
	defer ch.Close()
	d := NewDispatcher()
	d.Attach(ch)

	d.Emit("sendUserMessage", map[string]string{"receiver": "u2", "message": "hi"})

	sent := ch.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "sendUserMessage", sent[0].Event)
	assert.NotEmpty(t, sent[0].ClientMsgID, "outbound envelopes carry a correlation id")

	var payload map[string]string
	require.NoError(t, json.Unmarshal(sent[0].Data, &payload))
	assert.Equal(t, "u2", payload["receiver"])
}

func TestEmit_AfterDetachIsNoOp(t *testing.T) {
	ch := transport.NewMemChannel()
	defer ch.Close()
	d := NewDispatcher()
	d.Attach(ch)
	d.Detach()

	d.Emit("ev", nil)
	assert.Empty(t, ch.Sent())
}

// TestHandlers_RunSerially verifies inbound handlers are invoked one at a
// time in delivery order, the single-threaded event loop contract.
func TestHandlers_RunSerially(t *testing.T) {
	ch := transport.NewMemChannel()
	defer ch.Close()
	d := NewDispatcher()

	var order []string
	done := make(chan struct{})
	d.Subscribe("a", func(json.RawMessage) { order = append(order, "a") })
	d.Subscribe("b", func(json.RawMessage) { order = append(order, "b") })
	d.Subscribe("end", func(json.RawMessage) { close(done) })
	d.Attach(ch)

	require.NoError(t, ch.Deliver("a", nil))
	require.NoError(t, ch.Deliver("b", nil))
	require.NoError(t, ch.Deliver("a", nil))
	require.NoError(t, ch.Deliver("end", nil))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not drained")
	}
	assert.Equal(t, []string{"a", "b", "a"}, order)
}
