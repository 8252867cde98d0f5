// Package readsync tracks per-message read state intents. Marking a message
// read is never applied optimistically: the client emits a mark-read intent
// and only the server's confirmation event flips the stored state, so the
// display never claims a receipt the server has not recorded.
package readsync

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/flowchat-im/flowchat/conversation"
)

// EmitFunc sends one mark-read intent to the server.
type EmitFunc func(messageID string, isGroup bool)

// Synchronizer deduplicates mark-read intents per message. Display layers
// fire a visibility callback on every render, so without the guard one
// message would spam the server with intents. Safe for concurrent use.
type Synchronizer struct {
	mu     sync.Mutex
	marked map[string]struct{}
	emit   EmitFunc
}

// NewSynchronizer creates a Synchronizer emitting intents through emit.
func NewSynchronizer(emit EmitFunc) *Synchronizer {
	return &Synchronizer{
		marked: make(map[string]struct{}),
		emit:   emit,
	}
}

// MarkRead fires the intent for a message at most once. Reports whether the
// intent was emitted. Local state is untouched: the confirmation event is
// what updates the store.
func (s *Synchronizer) MarkRead(messageID string, isGroup bool) bool {
	if messageID == "" {
		return false
	}

	s.mu.Lock()
	if _, done := s.marked[messageID]; done {
		s.mu.Unlock()
		return false
	}
	s.marked[messageID] = struct{}{}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"message_id": messageID,
		"group":      isGroup,
	}).Debug("mark-read intent emitted")
	s.emit(messageID, isGroup)
	return true
}

// Reset forgets all emitted intents. Called on conversation switch; the
// next selection re-discovers unread messages from its own history load.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = make(map[string]struct{})
}

// SweepUnread fires intents for every group message in msgs that selfID has
// neither sent nor read. Used once per group history load. Returns the
// number of intents emitted.
func (s *Synchronizer) SweepUnread(msgs []conversation.Message, selfID string) int {
	n := 0
	for i := range msgs {
		m := &msgs[i]
		if m.Sender == selfID || m.HasReader(selfID) {
			continue
		}
		if s.MarkRead(m.ID, true) {
			n++
		}
	}
	return n
}

// FullyRead reports whether every member id appears in the message's reader
// set. False if even one is missing; an empty member list is trivially read.
func FullyRead(m *conversation.Message, members []string) bool {
	for _, id := range members {
		if !m.HasReader(id) {
			return false
		}
	}
	return true
}

// ReadBySelf reports whether the current user's id appears in the reader
// set. Partial group receipts still display as read-by-me.
func ReadBySelf(m *conversation.Message, selfID string) bool {
	return m.HasReader(selfID)
}
