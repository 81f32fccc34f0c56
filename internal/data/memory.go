package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryUsersStore is an in-process UsersStore used for tests and local runs.
// All operations hold one mutex, which gives the same per-document atomicity
// the Mongo store gets from single-document updates.
type MemoryUsersStore struct {
	mu      sync.Mutex
	byID    map[bson.ObjectID]*User
	byEmail map[string]bson.ObjectID
}

// NewMemoryUsersStore returns an empty MemoryUsersStore.
func NewMemoryUsersStore() *MemoryUsersStore {
	return &MemoryUsersStore{
		byID:    map[bson.ObjectID]*User{},
		byEmail: map[string]bson.ObjectID{},
	}
}

func (m *MemoryUsersStore) CreateUser(_ context.Context, email, hashedPassword string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return nil, ErrDuplicateUser
	}
	now := time.Now().UTC()
	u := &User{
		ID:        bson.NewObjectID(),
		Email:     email,
		Password:  hashedPassword,
		Sessions:  []LoginSession{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.byID[u.ID] = u
	m.byEmail[email] = u.ID
	return cloneUser(u), nil
}

func (m *MemoryUsersStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(m.byID[id]), nil
}

func (m *MemoryUsersStore) GetUserByID(_ context.Context, id bson.ObjectID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryUsersStore) UserExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *MemoryUsersStore) OpenSession(_ context.Context, userID bson.ObjectID, sessionID string, now time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return ErrNotFound
	}
	now = now.UTC()
	u.Sessions = OpenSession(u.Sessions, sessionID, now, ttl)
	u.UpdatedAt = now
	return nil
}

func (m *MemoryUsersStore) EnsureSession(_ context.Context, userID bson.ObjectID, sessionID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return false, nil
	}
	now = now.UTC()
	var appended bool
	u.Sessions, appended = EnsureActive(u.Sessions, sessionID, now)
	if appended {
		u.UpdatedAt = now
	}
	return appended, nil
}

func (m *MemoryUsersStore) CloseSession(_ context.Context, userID bson.ObjectID, sessionID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[userID]
	if !ok {
		return false, nil
	}
	now = now.UTC()
	var closed bool
	u.Sessions, closed = CloseSession(u.Sessions, sessionID, now)
	if closed {
		u.UpdatedAt = now
	}
	return closed, nil
}

func cloneUser(u *User) *User {
	c := *u
	c.Sessions = make([]LoginSession, len(u.Sessions))
	copy(c.Sessions, u.Sessions)
	return &c
}

type bucketKey struct {
	user bson.ObjectID
	key  string
}

// MemoryChatsStore is an in-process ChatsStore used for tests and local runs.
type MemoryChatsStore struct {
	mu      sync.Mutex
	buckets map[bson.ObjectID]*ChatBucket
	byKey   map[bucketKey]bson.ObjectID
}

// NewMemoryChatsStore returns an empty MemoryChatsStore.
func NewMemoryChatsStore() *MemoryChatsStore {
	return &MemoryChatsStore{
		buckets: map[bson.ObjectID]*ChatBucket{},
		byKey:   map[bucketKey]bson.ObjectID{},
	}
}

func (m *MemoryChatsStore) AppendMessage(_ context.Context, userID bson.ObjectID, key string, msg ChatMessage) (*ChatBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.Timestamp = msg.Timestamp.UTC()
	k := bucketKey{user: userID, key: key}
	b, ok := m.buckets[m.byKey[k]]
	if !ok {
		b = &ChatBucket{
			ID:        bson.NewObjectID(),
			User:      userID,
			SessionID: key,
			CreatedAt: msg.Timestamp,
		}
		m.buckets[b.ID] = b
		m.byKey[k] = b.ID
	}
	b.Messages = append(b.Messages, msg)
	b.UpdatedAt = msg.Timestamp
	return cloneBucket(b), nil
}

func (m *MemoryChatsStore) ListBuckets(_ context.Context, userID bson.ObjectID) ([]*ChatBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*ChatBucket{}
	for _, b := range m.buckets {
		if b.User == userID {
			out = append(out, cloneBucket(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryChatsStore) DeleteBucket(_ context.Context, userID, bucketID bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucketID]
	if !ok || b.User != userID {
		return ErrNotFound
	}
	delete(m.buckets, bucketID)
	delete(m.byKey, bucketKey{user: b.User, key: b.SessionID})
	return nil
}

func cloneBucket(b *ChatBucket) *ChatBucket {
	c := *b
	c.Messages = make([]ChatMessage, len(b.Messages))
	copy(c.Messages, b.Messages)
	return &c
}
