package transport

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	readLimit    = 1 << 20 // 1MB
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// WebsocketChannel is the production Channel over a gorilla websocket
// connection. The auth token rides the handshake URL as a query parameter;
// payloads are never inspected for auth. A single reader goroutine decodes
// inbound envelopes and a ticker goroutine keeps the connection alive with
// pings.
type WebsocketChannel struct {
	conn    *websocket.Conn
	events  chan Envelope
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// DialWebsocket connects to rawURL with the token in the handshake query
// string and returns the live channel.
func DialWebsocket(rawURL, token string) (Channel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse server url")
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial websocket")
	}

	ch := &WebsocketChannel{
		conn:   conn,
		events: make(chan Envelope, 64),
		done:   make(chan struct{}),
	}

	conn.SetReadLimit(readLimit)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "set read deadline")
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go ch.readLoop()
	go ch.pingLoop()

	logrus.WithFields(logrus.Fields{
		"server": u.Host,
	}).Info("websocket channel established")

	return ch, nil
}

// Send writes one envelope to the connection. It fails with
// ErrChannelClosed after Close.
func (c *WebsocketChannel) Send(env Envelope) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "write envelope")
	}
	return nil
}

// Events returns the inbound envelope stream. The channel is closed when
// the connection dies.
func (c *WebsocketChannel) Events() <-chan Envelope {
	return c.events
}

// Close terminates the connection and releases both goroutines. Safe to
// call more than once.
func (c *WebsocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *WebsocketChannel) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				logrus.WithError(err).Warn("websocket read failed")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Malformed frames are dropped, never fatal to the loop.
			logrus.WithError(err).Warn("malformed inbound frame dropped")
			continue
		}
		select {
		case c.events <- env:
		case <-c.done:
			return
		}
	}
}

func (c *WebsocketChannel) pingLoop() {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"),
				time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
