package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func TestLimiterStore_AllowAndCleanup(t *testing.T) {
	// allow 5 events immediately then the 6th should be rejected
	s := NewLimiterStore(5, 5, 50*time.Millisecond)
	defer s.Stop()

	key := "ip:10.0.0.1"
	for i := 0; i < 5; i++ {
		if !s.Allow(key) {
			t.Fatalf("expected allow at iteration %d", i)
		}
	}
	if s.Allow(key) {
		t.Fatalf("expected limiter to block after burst consumed")
	}

	// other keys have their own bucket
	if !s.Allow("ip:10.0.0.2") {
		t.Fatalf("expected a fresh key to be allowed")
	}

	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	if n != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", n)
	}
}

func TestLimiterStore_StopTwice(t *testing.T) {
	s := NewLimiterStore(5, 5, time.Minute)
	s.Stop()
	s.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	store := NewLimiterStore(60, 2, time.Minute)
	defer store.Stop()

	r := gin.New()
	r.POST("/login", RateLimit(store), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1"))
	assert.Equal(t, http.StatusOK, do("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("192.0.2.1"))
	assert.Equal(t, http.StatusOK, do("192.0.2.2"))
}
