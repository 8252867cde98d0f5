package flowchat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flowchat-im/flowchat/conversation"
	"github.com/flowchat-im/flowchat/history"
	"github.com/flowchat-im/flowchat/presence"
)

const historyFetchTimeout = 15 * time.Second

// conversationEvents are the event names whose handlers are scoped to the
// active conversation. They are unsubscribed on every selection change,
// before the next generation subscribes, so one server event is never
// delivered to two generations of handlers.
var conversationEvents = []string{
	evChatHistory,
	evMessageSent,
	evReceiveMessage,
	evReceiveGroupMessage,
	evMessageRead,
	evUserTyping,
	evUserStoppedTyping,
}

// SelectConversation switches the active context to the direct thread with
// the given peer: previous subscriptions are torn down, the store is reset
// under a new generation, and the history fetch is launched. A still
// in-flight fetch for the previous selection is abandoned, not awaited.
func (c *Client) SelectConversation(peerID, peerName string) {
	key := conversation.DirectKey(peerID)

	c.mu.Lock()
	c.teardownSelectionLocked()
	c.selection = key
	c.peerName = peerName
	gen := c.store.Reset(key)
	c.subscribeDirect(peerID)
	c.mu.Unlock()

	go c.fetchHistory(gen, key)
}

// SelectGroup switches the active context to a group thread. On history
// load every unread message is swept with a mark-read intent once.
func (c *Client) SelectGroup(groupID string) {
	key := conversation.GroupKey(groupID)

	c.mu.Lock()
	c.teardownSelectionLocked()
	c.selection = key
	c.peerName = ""
	gen := c.store.Reset(key)
	c.subscribeGroup(groupID)
	c.mu.Unlock()

	go c.fetchHistory(gen, key)
}

// ClearSelection leaves the current conversation. Per-conversation state is
// discarded, not parked: the next selection re-fetches history.
func (c *Client) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownSelectionLocked()
	c.selection = conversation.Key{}
	c.peerName = ""
	c.store.Reset(conversation.Key{})
}

// teardownSelectionLocked unsubscribes the conversation-scoped handlers and
// clears all per-conversation ephemeral state. Must run before the next
// selection subscribes.
func (c *Client) teardownSelectionLocked() {
	for _, ev := range conversationEvents {
		c.dispatcher.Unsubscribe(ev)
	}
	c.indicator.Clear()
	c.notifier.Reset()
	c.reads.Reset()
}

// fetchHistory loads the conversation history for the selection generation
// that issued it. A failure leaves the store untouched; a response arriving
// after the selection moved on is dropped by the store's generation check.
func (c *Client) fetchHistory(gen uint64, key conversation.Key) {
	ctx, cancel := context.WithTimeout(context.Background(), historyFetchTimeout)
	defer cancel()

	var msgs []conversation.Message
	var err error
	switch key.Kind {
	case conversation.KindDirect:
		msgs, err = c.rest.ChatHistory(ctx, key.ID)
	case conversation.KindGroup:
		msgs, err = c.rest.GroupHistory(ctx, key.ID)
	default:
		return
	}

	if err != nil {
		if errors.Is(err, history.ErrNoToken) {
			// Precondition, not a failure: unauthenticated clients skip
			// data operations entirely.
			logrus.Debug("history fetch skipped, no token")
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"conversation": key.ID,
		}).Warn("history fetch failed")

		c.mu.Lock()
		cb := c.onHistoryError
		current := c.selection == key
		c.mu.Unlock()
		if cb != nil && current {
			cb(key, err)
		}
		return
	}

	if !c.store.LoadHistory(gen, msgs) {
		return
	}

	if key.Kind == conversation.KindGroup {
		n := c.reads.SweepUnread(msgs, c.sess.UserID)
		if n > 0 {
			logrus.WithFields(logrus.Fields{
				"group":  key.ID,
				"unread": n,
			}).Debug("swept unread group messages")
		}
	}
}

// subscribeGlobal registers the handlers that outlive any selection:
// presence roster, group directory, server errors.
func (c *Client) subscribeGlobal() {
	c.dispatcher.Subscribe(evUserStatus, func(data json.RawMessage) {
		var roster []presence.Entry
		if err := json.Unmarshal(data, &roster); err != nil {
			logrus.WithError(err).Warn("malformed roster snapshot dropped")
			return
		}
		c.registry.ApplyRoster(roster)

		c.mu.Lock()
		cb := c.onPresence
		c.mu.Unlock()
		if cb != nil {
			cb(c.registry.Peers(c.sess.UserID))
		}
	})

	c.dispatcher.Subscribe(evGroupList, func(data json.RawMessage) {
		var groups []history.Group
		if err := json.Unmarshal(data, &groups); err != nil {
			logrus.WithError(err).Warn("malformed group list dropped")
			return
		}
		c.mu.Lock()
		c.groups = groups
		cb := c.onGroupList
		c.mu.Unlock()
		if cb != nil {
			cb(append([]history.Group(nil), groups...))
		}
	})

	c.dispatcher.Subscribe(evError, func(data json.RawMessage) {
		var ev serverError
		if err := json.Unmarshal(data, &ev); err != nil {
			logrus.WithError(err).Warn("malformed error event dropped")
			return
		}
		logrus.WithFields(logrus.Fields{
			"message": ev.Message,
		}).Error("server error event")

		c.mu.Lock()
		cb := c.onServerError
		c.mu.Unlock()
		if cb != nil {
			cb(ev.Message)
		}
	})
}

// subscribeDirect registers the handlers for a direct conversation with
// peerID. Events referencing any other conversation are dropped, not
// queued: per-conversation state only exists while selected.
func (c *Client) subscribeDirect(peerID string) {
	self := c.sess.UserID

	c.dispatcher.Subscribe(evChatHistory, func(data json.RawMessage) {
		var msgs []conversation.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			logrus.WithError(err).Warn("malformed chat history dropped")
			return
		}
		c.store.Replace(msgs)
	})

	c.dispatcher.Subscribe(evMessageSent, func(data json.RawMessage) {
		msg, ok := decodeMessage(data)
		if !ok {
			return
		}
		// Echo of our own send into this thread; anything else is noise.
		if msg.Sender != self || msg.Recipient != peerID {
			return
		}
		c.store.IngestLive(msg)
	})

	c.dispatcher.Subscribe(evReceiveMessage, func(data json.RawMessage) {
		msg, ok := decodeMessage(data)
		if !ok {
			return
		}
		if msg.Sender != peerID || msg.Recipient != self {
			return
		}
		if c.store.IngestLive(msg) {
			c.notifyMessage(msg)
		}
	})

	c.dispatcher.Subscribe(evMessageRead, c.handleMessageRead)

	c.dispatcher.Subscribe(evUserTyping, func(data json.RawMessage) {
		var ev typingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logrus.WithError(err).Warn("malformed typing event dropped")
			return
		}
		c.mu.Lock()
		match := ev.Username == c.peerName
		c.mu.Unlock()
		if !match {
			return
		}
		c.indicator.SetTyping(ev.Username)
		c.notifyTyping()
	})

	c.dispatcher.Subscribe(evUserStoppedTyping, func(json.RawMessage) {
		c.indicator.Clear()
		c.notifyTyping()
	})
}

// subscribeGroup registers the handlers for a group conversation. A live
// group message not yet read by this user triggers the mark-read intent
// immediately, mirroring the visibility trigger for history loads.
func (c *Client) subscribeGroup(groupID string) {
	self := c.sess.UserID
	selfName := c.sess.Username

	c.dispatcher.Subscribe(evReceiveGroupMessage, func(data json.RawMessage) {
		msg, ok := decodeMessage(data)
		if !ok {
			return
		}
		if msg.GroupID != groupID {
			return
		}
		if c.store.IngestLive(msg) {
			c.notifyMessage(msg)
		}
		if msg.Sender != self && !msg.HasReader(self) {
			c.reads.MarkRead(msg.ID, true)
		}
	})

	c.dispatcher.Subscribe(evMessageSent, func(data json.RawMessage) {
		msg, ok := decodeMessage(data)
		if !ok {
			return
		}
		if msg.Sender != self || msg.GroupID != groupID {
			return
		}
		c.store.IngestLive(msg)
	})

	c.dispatcher.Subscribe(evMessageRead, c.handleMessageRead)

	c.dispatcher.Subscribe(evUserTyping, func(data json.RawMessage) {
		var ev typingEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logrus.WithError(err).Warn("malformed typing event dropped")
			return
		}
		if ev.Username == selfName {
			return
		}
		c.indicator.SetTyping(ev.Username)
		c.notifyTyping()
	})

	c.dispatcher.Subscribe(evUserStoppedTyping, func(json.RawMessage) {
		c.indicator.Clear()
		c.notifyTyping()
	})
}

// handleMessageRead applies a server read confirmation to the store. This
// is the only place read state flips: the mark-read intent itself never
// touches local state. Unknown message ids are dropped; the next history
// reload reflects server truth.
func (c *Client) handleMessageRead(data json.RawMessage) {
	var ev messageReadEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		logrus.WithError(err).Warn("malformed read confirmation dropped")
		return
	}
	if ev.ReadBy != nil {
		c.store.UpdateReadBy(ev.MessageID, ev.ReadBy)
		return
	}
	c.store.UpdateReadState(ev.MessageID, ev.Read)
}

func (c *Client) notifyMessage(msg conversation.Message) {
	c.mu.Lock()
	cb := c.onMessage
	c.mu.Unlock()
	if cb != nil {
		cb(msg)
	}
}

func (c *Client) notifyTyping() {
	c.mu.Lock()
	cb := c.onTyping
	c.mu.Unlock()
	if cb != nil {
		cb(c.indicator.State())
	}
}

// decodeMessage unmarshals one message payload, dropping malformed ones.
func decodeMessage(data json.RawMessage) (conversation.Message, bool) {
	var msg conversation.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logrus.WithError(err).Warn("malformed message payload dropped")
		return conversation.Message{}, false
	}
	if msg.ID == "" {
		logrus.Warn("message payload without id dropped")
		return conversation.Message{}, false
	}
	return msg, true
}
