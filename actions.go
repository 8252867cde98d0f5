package flowchat

import (
	"strings"

	"github.com/flowchat-im/flowchat/conversation"
	"github.com/flowchat-im/flowchat/limits"
)

// Send sends text into the active conversation and flushes the typing
// state (the peer is told typing stopped). Emission is fire-and-forget;
// with no selection or no channel it is a silent no-op. The returned error
// only reports local validation: an empty or oversized body.
func (c *Client) Send(text string) error {
	text = strings.TrimSpace(text)
	if err := limits.ValidateMessage(text); err != nil {
		return err
	}

	c.mu.Lock()
	key := c.selection
	c.mu.Unlock()
	if key.IsZero() {
		return nil
	}

	switch key.Kind {
	case conversation.KindDirect:
		c.dispatcher.Emit(evSendUserMessage, sendUserMessagePayload{
			Receiver: key.ID,
			Message:  text,
		})
	case conversation.KindGroup:
		c.dispatcher.Emit(evSendGroupMessage, sendGroupMessagePayload{
			GroupID: key.ID,
			Message: text,
		})
	}

	// The input box is now empty; this also emits the stop signal.
	c.notifier.Flush()
	return nil
}

// OnInputChange feeds the current raw input value into the typing state
// machine. Call it on every change; start/stop signals are derived
// edge-triggered and debounced, never per keystroke.
func (c *Client) OnInputChange(text string) {
	c.mu.Lock()
	selected := !c.selection.IsZero()
	c.mu.Unlock()
	if !selected {
		return
	}
	c.notifier.Input(text)
}

// MarkRead emits a mark-read intent for the message, once per message id.
// Local read state does not change until the server confirms.
func (c *Client) MarkRead(messageID string) {
	c.mu.Lock()
	key := c.selection
	c.mu.Unlock()
	if key.IsZero() {
		return
	}
	c.reads.MarkRead(messageID, key.Kind == conversation.KindGroup)
}

// CreateGroup asks the server to create a group. The updated directory
// arrives as a groupList event. The returned error only reports local
// validation of the name.
func (c *Client) CreateGroup(name string) error {
	name = strings.TrimSpace(name)
	if err := limits.ValidateGroupName(name); err != nil {
		return err
	}
	c.dispatcher.Emit(evCreateGroup, createGroupPayload{Name: name})
	return nil
}

// JoinGroup joins a group and selects it.
func (c *Client) JoinGroup(groupID string) {
	if groupID == "" {
		return
	}
	c.dispatcher.Emit(evJoinGroup, joinGroupPayload{GroupID: groupID})
	c.SelectGroup(groupID)
}

// emitTypingStart relays the local typing-started signal for the active
// conversation. Wired as the Notifier's start callback.
func (c *Client) emitTypingStart() {
	c.mu.Lock()
	key := c.selection
	c.mu.Unlock()
	if key.IsZero() {
		return
	}
	c.dispatcher.Emit(evTyping, typingPayload{ReceiverID: key.ID})
}

// emitTypingStop relays the local typing-stopped signal. Wired as the
// Notifier's stop callback; may run from the debounce timer's goroutine.
func (c *Client) emitTypingStop() {
	c.mu.Lock()
	key := c.selection
	c.mu.Unlock()
	if key.IsZero() {
		return
	}
	c.dispatcher.Emit(evStopTyping, typingPayload{ReceiverID: key.ID})
}

// emitMarkRead sends the mark-read intent. Wired into the read
// synchronizer so the once-per-message guard lives in one place.
func (c *Client) emitMarkRead(messageID string, isGroup bool) {
	c.dispatcher.Emit(evMarkAsRead, markAsReadPayload{
		MessageID: messageID,
		IsGroup:   isGroup,
	})
}
