package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/PaulBabatuyi/chatlog/internal/data"
)

// ErrInvalidMessage is returned for an unknown role or empty content.
var ErrInvalidMessage = errors.New("invalid message")

// HistoryDateLayout renders a bucket's calendar date, e.g. "Friday, March 20, 2026".
const HistoryDateLayout = "Monday, January 2, 2006"

// HistoryGroup is one calendar date of history.
type HistoryGroup struct {
	Date     string             `json:"date"`
	Sessions []*data.ChatBucket `json:"sessions"`
}

// Chat appends to and reads the per-day chat log.
type Chat struct {
	chats ChatRepository
	loc   *time.Location
	now   Clock
}

// NewChat returns a Chat that labels history dates in loc (UTC when nil).
func NewChat(chats ChatRepository, loc *time.Location) *Chat {
	if loc == nil {
		loc = time.UTC
	}
	return &Chat{chats: chats, loc: loc, now: utcNow}
}

// WithClock replaces the wall clock.
func (c *Chat) WithClock(now Clock) *Chat {
	c.now = now
	return c
}

// PostMessage appends a message to today's (UTC) bucket.
func (c *Chat) PostMessage(ctx context.Context, id Identity, role data.Role, content string) (*data.ChatBucket, error) {
	if !id.Valid() {
		return nil, data.ErrUnauthorized
	}
	if !role.Valid() || strings.TrimSpace(content) == "" {
		return nil, ErrInvalidMessage
	}

	now := c.now().UTC()
	msg := data.ChatMessage{Role: role, Content: content, Timestamp: now}
	return c.chats.AppendMessage(ctx, id.UserID, data.DailyKey(now), msg)
}

// History returns the caller's buckets, newest first, grouped by the calendar
// date of each bucket's creation in the display location.
func (c *Chat) History(ctx context.Context, id Identity) ([]HistoryGroup, error) {
	if !id.Valid() {
		return nil, data.ErrUnauthorized
	}
	buckets, err := c.chats.ListBuckets(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return GroupByDate(buckets, c.loc), nil
}

// GroupByDate groups already-sorted buckets by display date, keeping the
// input order both across and within groups.
func GroupByDate(buckets []*data.ChatBucket, loc *time.Location) []HistoryGroup {
	groups := []HistoryGroup{}
	index := map[string]int{}
	for _, b := range buckets {
		date := b.CreatedAt.In(loc).Format(HistoryDateLayout)
		i, ok := index[date]
		if !ok {
			i = len(groups)
			index[date] = i
			groups = append(groups, HistoryGroup{Date: date})
		}
		groups[i].Sessions = append(groups[i].Sessions, b)
	}
	return groups
}

// DeleteBucket permanently removes one of the caller's buckets. Malformed,
// unknown and foreign ids all yield data.ErrNotFound.
func (c *Chat) DeleteBucket(ctx context.Context, id Identity, bucketID string) error {
	if !id.Valid() {
		return data.ErrUnauthorized
	}
	oid, err := bson.ObjectIDFromHex(bucketID)
	if err != nil {
		return data.ErrNotFound
	}
	return c.chats.DeleteBucket(ctx, id.UserID, oid)
}
