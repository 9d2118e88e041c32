// Package auth provides cookie sessions, per-session key/value storage and
// the login and staff gates for HTTP handlers.
package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const cookieName = "vv_session"

// ErrNoSession is returned by Load when the request carries no live session.
var ErrNoSession = errors.New("no session")

// Session is a browser session. AccountID is nil until the visitor logs in.
type Session struct {
	ID        string
	AccountID *int64
	ExpiresAt time.Time

	data map[string]json.RawMessage
}

// Get decodes the value stored under key into v and reports whether it existed.
func (s *Session) Get(key string, v interface{}) (bool, error) {
	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding session key %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key. Call SessionStore.Save to persist it.
func (s *Session) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding session key %s: %w", key, err)
	}
	if s.data == nil {
		s.data = make(map[string]json.RawMessage)
	}
	s.data[key] = raw
	return nil
}

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db     *sqlx.DB
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionStore creates a session store. Sessions live for ttl; secure
// marks the cookie HTTPS-only.
func NewSessionStore(db *sqlx.DB, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, secure: secure, now: time.Now}
}

// Create starts a new session and sets the cookie. When prev is given its
// data is carried over and its row deleted. A nil accountID creates an
// anonymous session.
func (s *SessionStore) Create(ctx context.Context, w http.ResponseWriter, accountID *int64, prev *Session) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
		data:      make(map[string]json.RawMessage),
	}
	if prev != nil {
		for k, v := range prev.data {
			sess.data[k] = v
		}
	}

	data, err := json.Marshal(sess.data)
	if err != nil {
		return nil, fmt.Errorf("encoding session data: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, account_id, data, expires_at, created_at) VALUES (?, ?, ?, ?, ?)",
		sess.ID, accountID, string(data), sess.ExpiresAt, s.now().UTC(),
	); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	if prev != nil {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", prev.ID); err != nil {
			return nil, fmt.Errorf("deleting previous session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Load returns the session named by the request cookie.
// Expired sessions are deleted and reported as ErrNoSession.
func (s *SessionStore) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	var row struct {
		AccountID *int64    `db:"account_id"`
		Data      string    `db:"data"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err = s.db.GetContext(ctx, &row,
		"SELECT account_id, data, expires_at FROM sessions WHERE id = ?", cookie.Value,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if s.now().After(row.ExpiresAt) {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
			return nil, fmt.Errorf("deleting expired session: %w", err)
		}
		return nil, ErrNoSession
	}

	sess := &Session{ID: cookie.Value, AccountID: row.AccountID, ExpiresAt: row.ExpiresAt}
	if err := json.Unmarshal([]byte(row.Data), &sess.data); err != nil {
		return nil, fmt.Errorf("decoding session data: %w", err)
	}
	return sess, nil
}

// Save persists the session's key/value data.
func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess.data)
	if err != nil {
		return fmt.Errorf("encoding session data: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET data = ? WHERE id = ?", string(data), sess.ID,
	); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil // no session to destroy
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Cleanup removes expired sessions and returns how many were deleted.
func (s *SessionStore) Cleanup(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}
	return result.RowsAffected()
}
