// Package search calls the upstream property-search service.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUpstream wraps every failure to get a usable answer from the service.
var ErrUpstream = errors.New("search upstream failed")

// Result is the service's response body.
type Result struct {
	Success     bool            `json:"success"`
	LLMResponse string          `json:"llm_response"`
	Results     json.RawMessage `json:"results"`
	Error       *string         `json:"error"`
}

// Client queries GET <base>/search?query=...
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Search runs query upstream. Non-2xx responses and unsuccessful bodies are
// reported as ErrUpstream.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	u := c.base + "/search?" + url.Values{"query": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	// upstream answers are small; cap what we buffer
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if !res.Success {
		msg := "unsuccessful response"
		if res.Error != nil {
			msg = *res.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	if len(res.Results) == 0 {
		res.Results = json.RawMessage("[]")
	}
	return &res, nil
}
