// Package presence maintains the online/offline status of known peers from
// total roster snapshots pushed by the server.
package presence

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Status is the presence state of a peer as far as this client knows.
type Status uint8

const (
	// StatusUnknown means the peer has never appeared in a roster snapshot,
	// or was absent from the most recent one. Distinct from a confirmed
	// offline: an absent id is not assumed to be anything.
	StatusUnknown Status = iota
	// StatusOffline means the latest snapshot listed the peer as offline.
	StatusOffline
	// StatusOnline means the latest snapshot listed the peer as online.
	StatusOnline
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Entry is one peer's presence record as the server sends it.
type Entry struct {
	UserID   string `json:"_id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// Registry holds the latest roster snapshot. Each snapshot is total and
// authoritative over all known peers, so ApplyRoster replaces the registry
// wholesale with no diffing or merging. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// ApplyRoster replaces the registry with the given snapshot. Peers absent
// from the snapshot are forgotten, not kept at their last known value:
// their status resolves to StatusUnknown afterwards.
func (r *Registry) ApplyRoster(entries []Entry) {
	next := make(map[string]Entry, len(entries))
	for _, e := range entries {
		next[e.UserID] = e
	}

	r.mu.Lock()
	r.entries = next
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"peers": len(entries),
	}).Debug("roster snapshot applied")
}

// StatusOf returns the peer's status per the latest snapshot.
func (r *Registry) StatusOf(userID string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return StatusUnknown
	}
	if e.Online {
		return StatusOnline
	}
	return StatusOffline
}

// Snapshot returns a copy of all entries, sorted by username for stable
// display lists.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Peers is Snapshot with one user id excluded, for roster views that hide
// the current user.
func (r *Registry) Peers(excludeID string) []Entry {
	all := r.Snapshot()
	out := all[:0]
	for _, e := range all {
		if e.UserID != excludeID {
			out = append(out, e)
		}
	}
	return out
}
