package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestChatsAppendAndList(t *testing.T) {
	c := setupDB(t)
	chats := NewChatsStore(c.ChatsCollection())
	ctx := context.Background()
	user := bson.NewObjectID()

	day := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	next := day.Add(24 * time.Hour)

	if _, err := chats.AppendMessage(ctx, user, DailyKey(day), ChatMessage{Role: RoleUser, Content: "q", Timestamp: day}); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	b, err := chats.AppendMessage(ctx, user, DailyKey(day), ChatMessage{Role: RoleAssistant, Content: "a", Timestamp: day.Add(time.Second)})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if len(b.Messages) != 2 || b.Messages[0].Content != "q" || b.Messages[1].Content != "a" {
		t.Fatalf("unexpected messages: %+v", b.Messages)
	}
	if !b.CreatedAt.Equal(day) {
		t.Fatalf("created_at changed on update: %v", b.CreatedAt)
	}

	if _, err := chats.AppendMessage(ctx, user, DailyKey(next), ChatMessage{Role: RoleUser, Content: "q2", Timestamp: next}); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	list, err := chats.ListBuckets(ctx, user)
	if err != nil {
		t.Fatalf("ListBuckets failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(list))
	}
	if list[0].SessionID != DailyKey(next) {
		t.Fatalf("expected newest bucket first, got %s", list[0].SessionID)
	}

	empty, err := chats.ListBuckets(ctx, bson.NewObjectID())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %v err=%v", empty, err)
	}
}

func TestChatsConcurrentAppend(t *testing.T) {
	c := setupDB(t)
	chats := NewChatsStore(c.ChatsCollection())
	ctx := context.Background()
	user := bson.NewObjectID()
	now := time.Now().UTC()

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := chats.AppendMessage(ctx, user, DailyKey(now), ChatMessage{Role: RoleUser, Content: fmt.Sprint(i), Timestamp: now})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AppendMessage failed: %v", err)
		}
	}

	list, err := chats.ListBuckets(ctx, user)
	if err != nil {
		t.Fatalf("ListBuckets failed: %v", err)
	}
	if len(list) != 1 || len(list[0].Messages) != n {
		t.Fatalf("expected 1 bucket with %d messages, got %d buckets", n, len(list))
	}
}

func TestChatsDeleteOwnership(t *testing.T) {
	c := setupDB(t)
	chats := NewChatsStore(c.ChatsCollection())
	ctx := context.Background()
	owner, other := bson.NewObjectID(), bson.NewObjectID()
	now := time.Now().UTC()

	b, err := chats.AppendMessage(ctx, owner, DailyKey(now), ChatMessage{Role: RoleUser, Content: "x", Timestamp: now})
	if err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	if err := chats.DeleteBucket(ctx, other, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if list, err := chats.ListBuckets(ctx, owner); err != nil || len(list) != 1 {
		t.Fatalf("bucket should survive foreign delete: %d buckets, err %v", len(list), err)
	}

	if err := chats.DeleteBucket(ctx, owner, b.ID); err != nil {
		t.Fatalf("DeleteBucket failed: %v", err)
	}
	if err := chats.DeleteBucket(ctx, owner, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
