// Package session holds the authenticated identity for one client process
// and its persistence across runs.
package session

import "errors"

// ErrNoSession is returned by Store.Load when no session is persisted.
var ErrNoSession = errors.New("session: none stored")

// Session is the authenticated identity: exactly one live Session at a
// time, created at login and destroyed at logout together with the channel.
// The token is opaque; it is attached to REST calls and to the channel
// handshake, never interpreted locally.
type Session struct {
	UserID   string
	Username string
	Token    string
}

// Valid reports whether the session can authenticate network operations.
func (s Session) Valid() bool {
	return s.Token != "" && s.UserID != ""
}
