package transport

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Dialer establishes a Channel to the given server URL authenticated by
// token. It exists as an injection point so tests and embedded setups can
// substitute an in-memory channel for the websocket one.
type Dialer func(url, token string) (Channel, error)

// Manager owns at most one live Channel per session. Open is idempotent
// while a channel is live; Close terminates and releases it. The Manager is
// an injected instance owned by the session lifecycle, deliberately not a
// package-global, so multiple sessions and tests can coexist.
//
// No reconnection is attempted here: recovery policy belongs to whoever
// owns the Manager.
type Manager struct {
	mu     sync.Mutex
	url    string
	dialer Dialer
	ch     Channel
}

// NewManager creates a Manager for the given server URL. A nil dialer
// falls back to DialWebsocket.
func NewManager(url string, dialer Dialer) *Manager {
	if dialer == nil {
		dialer = DialWebsocket
	}
	return &Manager{
		url:    url,
		dialer: dialer,
	}
}

// Open establishes the channel, authenticating implicitly via the token in
// the connection handshake. While a channel is already open, Open returns
// it unchanged.
func (m *Manager) Open(token string) (Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch != nil {
		return m.ch, nil
	}
	if token == "" {
		return nil, ErrNoToken
	}

	ch, err := m.dialer(m.url, token)
	if err != nil {
		return nil, err
	}
	m.ch = ch
	return ch, nil
}

// Close terminates the channel and releases it. A closed or never-opened
// Manager is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	ch := m.ch
	m.ch = nil
	m.mu.Unlock()

	if ch == nil {
		return nil
	}
	logrus.Debug("closing channel")
	return ch.Close()
}

// Channel returns the live channel, or nil when closed.
func (m *Manager) Channel() Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch
}
