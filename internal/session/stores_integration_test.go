package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulBabatuyi/chatlog/internal/db"
)

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	s := Session{ID: "contract-" + now.Format("150405.000"), UserID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Create(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	require.NoError(t, store.Delete(ctx, s.ID))
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestRedisStoreContract(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	storeContract(t, NewRedisStore(client))
}

func TestMongoStoreContract(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}
	ctx := context.Background()
	c, err := db.New(ctx, uri, "chatlog_session_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	require.NoError(t, c.CreateIndexes(ctx))

	store := NewMongoStore(c.SessionsCollection())
	storeContract(t, store)

	// expired records are invisible before the TTL monitor removes them
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.Create(ctx, Session{ID: "expired", UserID: "u", ExpiresAt: past}))
	_, err = store.Get(ctx, "expired")
	assert.ErrorIs(t, err, ErrNotFound)
	_ = store.Delete(ctx, "expired")
}
