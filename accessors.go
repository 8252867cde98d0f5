package flowchat

import (
	"github.com/flowchat-im/flowchat/conversation"
	"github.com/flowchat-im/flowchat/history"
	"github.com/flowchat-im/flowchat/presence"
	"github.com/flowchat-im/flowchat/readsync"
	"github.com/flowchat-im/flowchat/session"
	"github.com/flowchat-im/flowchat/typing"
)

// Messages returns a snapshot of the active conversation's message
// sequence.
func (c *Client) Messages() []conversation.Message {
	return c.store.Messages()
}

// Selection returns the currently selected conversation key; the zero Key
// means none.
func (c *Client) Selection() conversation.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Typing returns the remote typing state of the active conversation.
func (c *Client) Typing() typing.State {
	return c.indicator.State()
}

// Presence returns the latest roster snapshot with the current user
// excluded.
func (c *Client) Presence() []presence.Entry {
	return c.registry.Peers(c.sess.UserID)
}

// StatusOf returns the presence status of one peer.
func (c *Client) StatusOf(userID string) presence.Status {
	return c.registry.StatusOf(userID)
}

// Groups returns the latest group directory.
func (c *Client) Groups() []history.Group {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]history.Group(nil), c.groups...)
}

// Session returns the client's session identity.
func (c *Client) Session() session.Session {
	return c.sess
}

// FullyRead reports whether every group member has read the message.
func (c *Client) FullyRead(msg *conversation.Message, members []string) bool {
	return readsync.FullyRead(msg, members)
}

// ReadBySelf reports whether the current user has read the message.
func (c *Client) ReadBySelf(msg *conversation.Message) bool {
	return msg.HasReader(c.sess.UserID)
}
