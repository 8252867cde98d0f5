package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveLoad(t *testing.T) {
	s := tempStore(t)

	want := Session{UserID: "u1", Username: "alice", Token: "tok"}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_LoadEmpty(t *testing.T) {
	s := tempStore(t)

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

// TestStore_SaveOverwrites verifies the store holds exactly one session.
func TestStore_SaveOverwrites(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Save(Session{UserID: "u1", Username: "alice", Token: "old"}))
	require.NoError(t, s.Save(Session{UserID: "u1", Username: "alice", Token: "new"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", got.Token)
}

func TestStore_Clear(t *testing.T) {
	s := tempStore(t)

	require.NoError(t, s.Save(Session{UserID: "u1", Username: "alice", Token: "tok"}))
	require.NoError(t, s.Clear())

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	// Clearing again is fine.
	assert.NoError(t, s.Clear())
}

func TestSession_Valid(t *testing.T) {
	assert.True(t, Session{UserID: "u1", Username: "a", Token: "t"}.Valid())
	assert.False(t, Session{UserID: "u1"}.Valid())
	assert.False(t, Session{Token: "t"}.Valid())
	assert.False(t, Session{}.Valid())
}
