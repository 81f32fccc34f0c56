package data

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ChatsStore provides daily chat bucket database operations.
type ChatsStore struct {
	// coll is reference to "chat_histories" collection in MongoDB
	coll *mongo.Collection
}

// NewChatsStore returns a ChatsStore using given collection.
func NewChatsStore(coll *mongo.Collection) *ChatsStore {
	return &ChatsStore{coll: coll}
}

// AppendMessage pushes msg onto the user's bucket for key, creating the bucket
// on first use. The upsert is a single atomic findAndModify: concurrent appends
// for the same (user, key) never lose messages.
func (c *ChatsStore) AppendMessage(ctx context.Context, userID bson.ObjectID, key string, msg ChatMessage) (*ChatBucket, error) {
	now := msg.Timestamp.UTC()
	msg.Timestamp = now

	// Bucket identity: one document per (user, daily key)
	filter := bson.D{
		{Key: "user", Value: userID},
		{Key: "session_id", Value: key},
	}
	update := bson.D{
		// $push appends in call order
		{Key: "$push", Value: bson.D{{Key: "messages", Value: msg}}},
		// created_at is written only when the upsert inserts
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After) // return the bucket including this message

	var bucket ChatBucket
	err := c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&bucket)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Two upserts raced to insert the same day's bucket; the unique index
		// rejected one of them. The bucket now exists, so the retry is a plain update.
		err = c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &bucket, nil
}

// ListBuckets returns all buckets of a user, newest created_at first.
func (c *ChatsStore) ListBuckets(ctx context.Context, userID bson.ObjectID) ([]*ChatBucket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := c.coll.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find buckets: %w", err)
	}
	defer cursor.Close(ctx)

	buckets := []*ChatBucket{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode buckets: %w", err)
	}
	return buckets, nil
}

// DeleteBucket removes a bucket owned by userID. A bucket owned by anyone else
// is reported as ErrNotFound and left untouched.
func (c *ChatsStore) DeleteBucket(ctx context.Context, userID, bucketID bson.ObjectID) error {
	// Owner is part of the filter, so a foreign bucket simply does not match
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": bucketID, "user": userID})
	if err != nil {
		return fmt.Errorf("delete bucket: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
