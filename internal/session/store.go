// Package session manages the server-side transport session behind the
// chatlog.sid cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is unknown or already expired.
var ErrNotFound = errors.New("session: not found")

// Session represents an authenticated browser session.
// It stores only identity pointers; the login ledger lives on the user.
type Session struct {
	ID        string    `bson:"_id" json:"id"`                // 256-bit random id, base64url
	UserID    string    `bson:"user_id" json:"user_id"`       // users._id as hex
	CreatedAt time.Time `bson:"created_at" json:"created_at"` // issue time
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // absolute expiry
}

// Expired reports whether s is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Store defines how sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, s Session) error
	// Get returns ErrNotFound for unknown and expired sessions.
	Get(ctx context.Context, sessionID string) (*Session, error)
	// Delete is a no-op for unknown sessions.
	Delete(ctx context.Context, sessionID string) error
}

func validate(s Session) error {
	if s.ID == "" || s.UserID == "" {
		return errors.New("session: missing id or user_id")
	}
	if s.ExpiresAt.IsZero() {
		return errors.New("session: missing expires_at")
	}
	return nil
}
