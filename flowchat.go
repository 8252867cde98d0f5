// Package flowchat implements the client side of a real-time direct- and
// group-messaging service: connection lifecycle, merging of REST-fetched
// history with live push events, read receipts, typing indicators, and peer
// presence, all exposed to a display layer as read-only snapshots and
// callbacks.
//
// Example:
//
//	opts := flowchat.NewOptions()
//	opts.ServerURL = "https://chat.example.com"
//	opts.Session = session.Session{UserID: "u1", Username: "alice", Token: token}
//
//	client, err := flowchat.New(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Disconnect()
//
//	client.OnMessage(func(msg conversation.Message) {
//	    fmt.Printf("%s: %s\n", msg.SenderName, msg.Body)
//	})
//
//	client.SelectConversation("u42", "bob")
//	client.Send("hello")
package flowchat

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flowchat-im/flowchat/conversation"
	"github.com/flowchat-im/flowchat/dispatch"
	"github.com/flowchat-im/flowchat/history"
	"github.com/flowchat-im/flowchat/presence"
	"github.com/flowchat-im/flowchat/readsync"
	"github.com/flowchat-im/flowchat/session"
	"github.com/flowchat-im/flowchat/transport"
	"github.com/flowchat-im/flowchat/typing"
)

// ErrNoServerURL is returned by New when Options.ServerURL is empty.
var ErrNoServerURL = errors.New("flowchat: server URL required")

// Options contains configuration for creating a Client.
type Options struct {
	// ServerURL is the http(s) base of the message server. The websocket
	// handshake uses the same host with the scheme switched to ws(s).
	ServerURL string
	// Session is the authenticated identity. An invalid session turns all
	// data operations into no-ops rather than errors.
	Session session.Session
	// DebounceDelay is the typing-pause window. Zero means the default.
	DebounceDelay time.Duration
	// TypingTimeout bounds a remote typing indicator with no stop event.
	// Zero means the default.
	TypingTimeout time.Duration
	// HTTPClient overrides the REST client's http.Client.
	HTTPClient *http.Client
	// Dialer overrides how the channel is established. Nil means the
	// websocket dialer.
	Dialer transport.Dialer
	// TimeProvider drives the debounce and timeout timers. Nil means the
	// system clock.
	TimeProvider typing.TimeProvider
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		DebounceDelay: typing.DefaultDebounceDelay,
		TypingTimeout: typing.DefaultClearTimeout,
	}
}

// Client is the message synchronization and presence state machine. One
// Client serves one session; the channel, the conversation store, and all
// derived state live and die with it. Safe for concurrent use: inbound
// events are applied serially by the dispatcher's reader goroutine, and
// every snapshot accessor returns a copy.
type Client struct {
	sess session.Session

	manager    *transport.Manager
	dispatcher *dispatch.Dispatcher
	store      *conversation.Store
	reads      *readsync.Synchronizer
	notifier   *typing.Notifier
	indicator  *typing.Indicator
	registry   *presence.Registry
	rest       *history.Client

	mu        sync.Mutex
	connected bool
	selection conversation.Key
	peerName  string
	groups    []history.Group

	onMessage      func(conversation.Message)
	onTyping       func(typing.State)
	onPresence     func([]presence.Entry)
	onGroupList    func([]history.Group)
	onHistoryError func(conversation.Key, error)
	onServerError  func(string)
}

// New creates a Client from opts. The channel is not opened until Connect.
func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if opts.ServerURL == "" {
		return nil, ErrNoServerURL
	}
	wsEndpoint, err := wsURL(opts.ServerURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		sess:       opts.Session,
		manager:    transport.NewManager(wsEndpoint, opts.Dialer),
		dispatcher: dispatch.NewDispatcher(),
		store:      conversation.NewStore(),
		registry:   presence.NewRegistry(),
		rest:       history.NewClient(opts.ServerURL+"/api", opts.Session.Token, opts.HTTPClient),
	}
	c.reads = readsync.NewSynchronizer(c.emitMarkRead)
	c.notifier = typing.NewNotifier(opts.DebounceDelay, opts.TimeProvider,
		c.emitTypingStart, c.emitTypingStop)
	c.indicator = typing.NewIndicator(opts.TypingTimeout, opts.TimeProvider)

	return c, nil
}

// Connect opens the channel for the session's token and starts routing
// inbound events. Calling Connect on a connected client is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	ch, err := c.manager.Open(c.sess.Token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.subscribeGlobal()
	c.dispatcher.Attach(ch)

	logrus.WithFields(logrus.Fields{
		"user": c.sess.UserID,
	}).Info("client connected")
	return nil
}

// Disconnect tears down the channel and clears the active selection.
// Subsequent actions are silent no-ops until the next Connect.
func (c *Client) Disconnect() {
	c.ClearSelection()

	c.dispatcher.Unsubscribe(evUserStatus)
	c.dispatcher.Unsubscribe(evGroupList)
	c.dispatcher.Unsubscribe(evError)
	c.dispatcher.Detach()

	if err := c.manager.Close(); err != nil {
		logrus.WithError(err).Warn("channel close failed")
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

// OnMessage registers a callback fired for every live message appended to
// the active conversation.
func (c *Client) OnMessage(cb func(conversation.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = cb
}

// OnTyping registers a callback fired when the remote typing state of the
// active conversation changes.
func (c *Client) OnTyping(cb func(typing.State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTyping = cb
}

// OnPresence registers a callback fired on every roster snapshot with the
// peer list (the current user excluded).
func (c *Client) OnPresence(cb func([]presence.Entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPresence = cb
}

// OnGroupList registers a callback fired when the group directory changes.
func (c *Client) OnGroupList(cb func([]history.Group)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onGroupList = cb
}

// OnHistoryError registers a callback fired when a history fetch fails for
// a still-selected conversation. The store is left untouched in that case.
func (c *Client) OnHistoryError(cb func(conversation.Key, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHistoryError = cb
}

// OnServerError registers a callback for server-pushed error events.
func (c *Client) OnServerError(cb func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onServerError = cb
}

// wsURL converts the http(s) server URL into its websocket counterpart.
func wsURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", errors.Wrap(err, "parse server url")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
