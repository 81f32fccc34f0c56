package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "2bhk in indiranagar", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"llm_response":"Here are 2 homes","results":[{"id":1},{"id":2}],"error":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	res, err := c.Search(context.Background(), "2bhk in indiranagar")
	require.NoError(t, err)
	assert.Equal(t, "Here are 2 homes", res.LLMResponse)
	assert.JSONEq(t, `[{"id":1},{"id":2}]`, string(res.Results))
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`},
		{"unsuccessful", http.StatusOK, `{"success":false,"error":"qdrant down"}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "q")
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 20*time.Millisecond).Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSearchEmptyResultsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"llm_response":"nothing found"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(res.Results))
}
