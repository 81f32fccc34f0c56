package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PaulBabatuyi/chatlog/internal/auth"
)

// ErrNoSession is returned by Load when the request carries no usable session.
var ErrNoSession = errors.New("session: no session")

// Manager ties the server-side Store to the signed cookie.
type Manager struct {
	store  Store
	tokens *auth.TokenManager
	ttl    time.Duration
	cookie CookieOptions
	now    func() time.Time
}

// NewManager returns a Manager issuing sessions that live for ttl.
func NewManager(store Store, tokens *auth.TokenManager, ttl time.Duration, cookie CookieOptions) *Manager {
	return &Manager{store: store, tokens: tokens, ttl: ttl, cookie: cookie, now: time.Now}
}

// NewID returns a fresh session id. Login uses it to open the ledger entry
// before the session is persisted.
func (m *Manager) NewID() (string, error) {
	return GenerateID()
}

// Start persists a session with id for userID and sets the cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, id, userID string) (*Session, error) {
	now := m.now().UTC()
	s := Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, err
	}

	token, err := m.tokens.GenerateToken(s.ID, s.UserID, s.ExpiresAt)
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return nil, fmt.Errorf("session: sign cookie: %w", err)
	}

	SetCookie(w, token, s.ExpiresAt, m.cookie)
	return &s, nil
}

// Load resolves the request cookie to a live server-side session. Any
// failure to verify or find the session yields ErrNoSession; store failures
// are returned as-is.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := m.tokens.VerifyToken(c.Value)
	if err != nil {
		return nil, ErrNoSession
	}

	s, err := m.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	// cookie and record must agree on the owner
	if s.UserID != claims.UserID {
		return nil, ErrNoSession
	}
	return s, nil
}

// Revoke deletes the server-side session without touching the cookie.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// Destroy revokes the server-side session (if any) and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, id string) error {
	ClearCookie(w, m.cookie)
	return m.Revoke(ctx, id)
}
