package session

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists the session across process runs in a local sqlite file,
// holding at most one row. The original login flow hands the token to the
// client out-of-band; the store only keeps it warm for the next start.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the sqlite file at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS auth (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	token TEXT NOT NULL,
	user_id TEXT NOT NULL,
	username TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate auth: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the single session row.
func (s *Store) Save(sess Session) error {
	const q = `
INSERT INTO auth (id, token, user_id, username) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	token = excluded.token,
	user_id = excluded.user_id,
	username = excluded.username;
`
	if _, err := s.db.Exec(q, sess.Token, sess.UserID, sess.Username); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or ErrNoSession when none exists.
func (s *Store) Load() (Session, error) {
	const q = `SELECT token, user_id, username FROM auth WHERE id = 1;`
	var sess Session
	err := s.db.QueryRow(q).Scan(&sess.Token, &sess.UserID, &sess.Username)
	if err == sql.ErrNoRows {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// Clear deletes the persisted session. Clearing an empty store is fine.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM auth;`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
