package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable FromEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "MONGODB_URI", "MONGODB_DATABASE", "STORE_BACKEND",
		"SESSION_SECRET", "SESSION_KEYS", "SESSION_ACTIVE_KID", "SESSION_TTL", "SESSION_BACKEND",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RATE_LIMIT_RPM",
		"GRPC_HEALTH_PORT", "TLS_CERT", "TLS_KEY", "REQUIRE_TLS",
		"SEARCH_URL", "SEARCH_TIMEOUT", "HISTORY_TIMEZONE", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "chat_db", cfg.MongoDatabase)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, BackendMongo, cfg.SessionBackend)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 120*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 10, cfg.RateLimitRPM)
	assert.Equal(t, time.UTC, cfg.HistoryTimezone)
	assert.Equal(t, map[string]string{"default": "s3cret"}, cfg.SessionKeys)
	assert.Equal(t, "default", cfg.SessionActiveKid)
	assert.False(t, cfg.Production())
}

func TestFromEnvKeyRotation(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("SESSION_KEYS", "k1:one, k2:two")
	t.Setenv("SESSION_ACTIVE_KID", "k2")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k1": "one", "k2": "two"}, cfg.SessionKeys)
	assert.Equal(t, "k2", cfg.SessionActiveKid)
	assert.False(t, cfg.NeedsMongo())
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no secret", map[string]string{"MONGODB_URI": "mongodb://x"}},
		{"missing mongo uri", map[string]string{"SESSION_SECRET": "s"}},
		{"unknown active kid", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_KEYS": "k1:one", "SESSION_ACTIVE_KID": "k9"}},
		{"bad keys", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_KEYS": "nocolon"}},
		{"bad ttl", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_SECRET": "s", "SESSION_TTL": "soon"}},
		{"bad backend", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_SECRET": "s", "SESSION_BACKEND": "etcd"}},
		{"bad timezone", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_SECRET": "s", "HISTORY_TIMEZONE": "Mars/Olympus"}},
		{"tls required", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_SECRET": "s", "REQUIRE_TLS": "true"}},
		{"bad rpm", map[string]string{"MONGODB_URI": "mongodb://x", "SESSION_SECRET": "s", "RATE_LIMIT_RPM": "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnvTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://x")
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("HISTORY_TIMEZONE", "America/New_York")
	t.Setenv("APP_ENV", "production")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.HistoryTimezone.String())
	assert.True(t, cfg.Production())
}
