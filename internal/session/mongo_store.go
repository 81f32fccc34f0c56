package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoStore keeps sessions in the "sessions" collection. A TTL index on
// expires_at (see db.CreateIndexes) removes them; Get also filters on expiry
// because the TTL monitor only runs about once a minute.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a MongoStore using the provided collection.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Create(ctx context.Context, s Session) error {
	if err := validate(s); err != nil {
		return err
	}
	if _, err := m.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("session: insert: %w", err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	filter := bson.M{
		"_id":        sessionID,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}

	var s Session
	if err := m.coll.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: find: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
