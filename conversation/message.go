package conversation

import "time"

// Kind distinguishes the two thread shapes the server exposes.
type Kind uint8

const (
	// KindNone means no conversation is selected.
	KindNone Kind = iota
	// KindDirect is a two-party thread keyed by the peer's user id.
	KindDirect
	// KindGroup is a multi-party thread keyed by the group id.
	KindGroup
)

// Key identifies a conversation: a peer user id for direct threads,
// a group id for group threads.
type Key struct {
	Kind Kind
	ID   string
}

// DirectKey returns the Key for a direct conversation with the given peer.
func DirectKey(peerID string) Key {
	return Key{Kind: KindDirect, ID: peerID}
}

// GroupKey returns the Key for a group conversation.
func GroupKey(groupID string) Key {
	return Key{Kind: KindGroup, ID: groupID}
}

// IsZero reports whether no conversation is selected.
func (k Key) IsZero() bool {
	return k.Kind == KindNone
}

// Message is a single chat message as the server represents it. Direct
// messages carry Read; group messages carry ReadBy (set semantics, the
// element order is not meaningful). Identity is the server-assigned ID.
type Message struct {
	ID         string    `json:"_id"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderUsername,omitempty"`
	Recipient  string    `json:"receiver,omitempty"`
	GroupID    string    `json:"group,omitempty"`
	Body       string    `json:"message"`
	Read       bool      `json:"read,omitempty"`
	ReadBy     []string  `json:"readBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsGroup reports whether the message belongs to a group thread.
func (m *Message) IsGroup() bool {
	return m.GroupID != ""
}

// HasReader reports whether userID appears in the message's reader set.
func (m *Message) HasReader(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
