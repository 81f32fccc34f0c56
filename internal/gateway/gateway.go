// Package gateway holds the application operations behind the HTTP API:
// account and login-session handling (Auth) and the daily chat log (Chat).
// Callers pass the authenticated Identity explicitly.
package gateway

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/chatlog/internal/data"
)

// Identity is the authenticated caller: the user and the transport session
// the request arrived on.
type Identity struct {
	UserID    bson.ObjectID
	SessionID string
}

// Valid reports whether both halves of the identity are present.
func (i Identity) Valid() bool {
	return !i.UserID.IsZero() && i.SessionID != ""
}

// UserRepository is implemented by data.UsersStore and data.MemoryUsersStore.
type UserRepository interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	GetUserByID(ctx context.Context, id bson.ObjectID) (*data.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	OpenSession(ctx context.Context, userID bson.ObjectID, sessionID string, now time.Time, ttl time.Duration) error
	EnsureSession(ctx context.Context, userID bson.ObjectID, sessionID string, now time.Time) (bool, error)
	CloseSession(ctx context.Context, userID bson.ObjectID, sessionID string, now time.Time) (bool, error)
}

// ChatRepository is implemented by data.ChatsStore and data.MemoryChatsStore.
type ChatRepository interface {
	AppendMessage(ctx context.Context, userID bson.ObjectID, key string, msg data.ChatMessage) (*data.ChatBucket, error)
	ListBuckets(ctx context.Context, userID bson.ObjectID) ([]*data.ChatBucket, error)
	DeleteBucket(ctx context.Context, userID, bucketID bson.ObjectID) error
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

var (
	_ UserRepository = (*data.UsersStore)(nil)
	_ UserRepository = (*data.MemoryUsersStore)(nil)
	_ ChatRepository = (*data.ChatsStore)(nil)
	_ ChatRepository = (*data.MemoryChatsStore)(nil)
)
