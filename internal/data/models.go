package data

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SessionTTL is how long a login session stays active before the next login sweeps it.
const SessionTTL = 14 * 24 * time.Hour

// User maps to users collection (id, email, password hash, login session ledger, timestamps)
type User struct {
	ID        bson.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Email     string         `bson:"email" json:"email"`
	Password  string         `bson:"password" json:"-"` // bcrypt hash, never serialized
	Sessions  []LoginSession `bson:"sessions" json:"sessions"`
	CreatedAt time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updatedAt"`
}

// LoginSession is one entry of the per-user session ledger embedded in User.
// EndTime is nil while the session is active.
type LoginSession struct {
	SessionID  string     `bson:"session_id" json:"sessionId"`
	StartTime  time.Time  `bson:"start_time" json:"startTime"`
	EndTime    *time.Time `bson:"end_time,omitempty" json:"endTime,omitempty"`
	DurationMS int64      `bson:"duration,omitempty" json:"duration,omitempty"` // milliseconds, set once closed
	Expired    bool       `bson:"expired" json:"expired"`
}

// Active reports whether the session has not been closed yet.
func (s LoginSession) Active() bool { return s.EndTime == nil }

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the accepted roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// ChatMessage is a single entry in a ChatBucket.
type ChatMessage struct {
	Role      Role      `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatBucket maps to chat_histories collection: one document per (user, calendar day)
type ChatBucket struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	User      bson.ObjectID `bson:"user" json:"user"`
	SessionID string        `bson:"session_id" json:"session_id"` // "daily-YYYY-MM-DD"
	Messages  []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updatedAt"`
}

// DailyKey returns the bucket key for the UTC calendar day of t.
func DailyKey(t time.Time) string {
	return "daily-" + t.UTC().Format("2006-01-02")
}
