package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/chatlog/internal/auth"
	"github.com/PaulBabatuyi/chatlog/internal/data"
	"github.com/PaulBabatuyi/chatlog/internal/normalize"
)

// Auth registers users, verifies credentials and keeps the login ledger.
type Auth struct {
	users UserRepository
	ttl   time.Duration
	now   Clock
}

// NewAuth returns an Auth whose ledger sweep uses ttl.
func NewAuth(users UserRepository, ttl time.Duration) *Auth {
	return &Auth{users: users, ttl: ttl, now: utcNow}
}

// WithClock replaces the wall clock.
func (a *Auth) WithClock(now Clock) *Auth {
	a.now = now
	return a
}

// Register creates a user with a bcrypt hash of password.
func (a *Auth) Register(ctx context.Context, email, password string) (*data.User, error) {
	email = normalize.Email(email)

	exists, err := a.users.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, data.ErrDuplicateUser
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// the unique index still catches a concurrent registration
	return a.users.CreateUser(ctx, email, hash)
}

// Verify checks credentials. Unknown email and wrong password both yield
// data.ErrInvalidCredentials.
func (a *Auth) Verify(ctx context.Context, email, password string) (*data.User, error) {
	user, err := a.users.GetUserByEmail(ctx, normalize.Email(email))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, data.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.Password, password); err != nil {
		return nil, data.ErrInvalidCredentials
	}
	return user, nil
}

// Login verifies credentials, sweeps the user's stale ledger entries and opens
// an entry for sessionID.
func (a *Auth) Login(ctx context.Context, email, password, sessionID string) (*data.User, error) {
	user, err := a.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.users.OpenSession(ctx, user.ID, sessionID, a.now(), a.ttl); err != nil {
		return nil, fmt.Errorf("open login session: %w", err)
	}
	return user, nil
}

// EnsureActiveSession appends a ledger entry for id.SessionID when the user
// has no active one for it. Returns true when an entry was appended.
func (a *Auth) EnsureActiveSession(ctx context.Context, id Identity) (bool, error) {
	if !id.Valid() {
		return false, data.ErrUnauthorized
	}
	return a.users.EnsureSession(ctx, id.UserID, id.SessionID, a.now())
}

// Logout closes the ledger entry for id.SessionID at the current time.
// Destroying the transport session is the caller's job.
func (a *Auth) Logout(ctx context.Context, id Identity) error {
	if !id.Valid() {
		return data.ErrUnauthorized
	}
	if _, err := a.users.CloseSession(ctx, id.UserID, id.SessionID, a.now()); err != nil {
		return err
	}
	return nil
}

// Profile returns the caller's user record. The password hash never leaves
// the process because User.Password is not serialized.
func (a *Auth) Profile(ctx context.Context, id Identity) (*data.User, error) {
	if !id.Valid() {
		return nil, data.ErrUnauthorized
	}
	return a.users.GetUserByID(ctx, id.UserID)
}

// ParseUserID converts a hex user id from the session record.
func ParseUserID(hex string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, data.ErrUnauthorized
	}
	return id, nil
}
