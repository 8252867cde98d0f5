// Package conversation implements the per-conversation message log: an
// ordered, deduplicated sequence of messages merged from two independent
// sources, a wholesale history fetch and live push events.
//
// The store is the deduplication boundary for the whole client. The
// transport is assumed to deliver the same logical message more than once
// (a send can surface both as an echo and as a broadcast, and the server
// may redeliver), so IngestLive rejects already-seen ids in O(1).
//
// Example:
//
//	store := conversation.NewStore()
//	gen := store.Reset(conversation.DirectKey("u42"))
//	store.LoadHistory(gen, history)
//	store.IngestLive(msg)
package conversation

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Store holds the message sequence for the currently selected conversation.
// It is safe for concurrent use.
//
// A generation counter ties asynchronous history fetches to the selection
// that issued them: Reset bumps the generation, and LoadHistory only applies
// when its generation still matches, so a late response for a conversation
// no longer selected is discarded rather than resurrecting stale state.
type Store struct {
	mu   sync.Mutex
	key  Key
	gen  uint64
	msgs []Message
	seen map[string]struct{}
}

// NewStore creates an empty Store with no conversation selected.
func NewStore() *Store {
	return &Store{
		seen: make(map[string]struct{}),
	}
}

// Reset discards all state, binds the store to the given conversation, and
// returns the new generation. Callers pass the generation back to
// LoadHistory when their fetch completes.
func (s *Store) Reset(key Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = key
	s.gen++
	s.msgs = nil
	s.seen = make(map[string]struct{})

	logrus.WithFields(logrus.Fields{
		"conversation": key.ID,
		"generation":   s.gen,
	}).Debug("conversation store reset")

	return s.gen
}

// Key returns the conversation the store is currently bound to.
func (s *Store) Key() Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Generation returns the current selection generation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// LoadHistory replaces the sequence wholesale with the fetched history and
// rebuilds the seen-id set. It reports whether the load was applied: a
// stale generation means the selection changed while the fetch was in
// flight and the response is dropped.
//
// Live messages ingested while the fetch was outstanding are replaced along
// with everything else; the server's history is authoritative, including
// for read state (local optimism never survives a reload).
func (s *Store) LoadHistory(gen uint64, msgs []Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		logrus.WithFields(logrus.Fields{
			"conversation": s.key.ID,
			"stale_gen":    gen,
			"current_gen":  s.gen,
		}).Debug("dropping stale history response")
		return false
	}

	s.replaceLocked(msgs)
	return true
}

// Replace is LoadHistory bound to the current generation, for history
// pushed over the live channel rather than fetched.
func (s *Store) Replace(msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(msgs)
}

func (s *Store) replaceLocked(msgs []Message) {
	s.msgs = make([]Message, len(msgs))
	copy(s.msgs, msgs)
	s.seen = make(map[string]struct{}, len(msgs))
	for i := range msgs {
		s.seen[msgs[i].ID] = struct{}{}
	}
}

// IngestLive appends a pushed message to the end of the sequence. A message
// whose id is already present is discarded, which makes ingestion idempotent
// and makes the ordering of the history fetch and the live stream
// commutative. Reports whether the message was appended.
func (s *Store) IngestLive(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[msg.ID]; dup {
		logrus.WithFields(logrus.Fields{
			"message_id":   msg.ID,
			"conversation": s.key.ID,
		}).Debug("duplicate live message discarded")
		return false
	}
	s.seen[msg.ID] = struct{}{}
	s.msgs = append(s.msgs, msg)
	return true
}

// UpdateReadState flips the read flag of a direct message in place.
// Unknown ids are a no-op: the message is not in the local window and the
// next history reload will reflect server truth anyway.
func (s *Store) UpdateReadState(id string, read bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs[i].Read = read
			return true
		}
	}
	return false
}

// UpdateReadBy replaces the reader set of a group message in place.
// Unknown ids are a no-op, as with UpdateReadState.
func (s *Store) UpdateReadBy(id string, readers []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.msgs {
		if s.msgs[i].ID == id {
			s.msgs[i].ReadBy = append([]string(nil), readers...)
			return true
		}
	}
	return false
}

// Messages returns a snapshot copy of the sequence for the display layer.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}
