// Package data provides DB models and stores.
package data

import (
	"context" // Used for cancellation and timeouts
	"errors"  // Error handling
	"fmt"     // Error wrapping
	"time"    // Timestamps

	"go.mongodb.org/mongo-driver/v2/bson"  // MongoDB document queries
	"go.mongodb.org/mongo-driver/v2/mongo" // MongoDB driver
)

// UsersStore performs user DB operations, including the embedded session ledger.
type UsersStore struct {
	// coll is reference to "users" collection in MongoDB
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// CreateUser inserts a new user document with hashed password and an empty session ledger.
func (u *UsersStore) CreateUser(ctx context.Context, email, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		Email:     email,            // Already normalized by the caller
		Password:  hashedPassword,   // Already hashed by auth.HashPassword()
		Sessions:  []LoginSession{}, // Stored as [] so array operators never see null
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		// Unique index on email turns a concurrent duplicate registration into E11000
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	// MongoDB generated the _id; carry it back for the session cookie
	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// GetUserByEmail finds a user by (normalized) email.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// GetUserByID finds a user by ObjectID.
func (u *UsersStore) GetUserByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var user User
	err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		// No document found (user was deleted since the session was issued)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UserExists checks if a user exists by email.
func (u *UsersStore) UserExists(ctx context.Context, email string) (bool, error) {
	// CountDocuments is enough when only existence matters
	count, err := u.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

// OpenSession sweeps the user's stale active sessions and appends a new active
// entry for sessionID, in a single atomic update.
func (u *UsersStore) OpenSession(ctx context.Context, userID bson.ObjectID, sessionID string, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	ttlMS := ttl.Milliseconds()

	// Stage: rewrite the sessions array
	//   - active entries older than ttl become {end_time: start+ttl, duration: ttl, expired: true}
	//   - the new entry is appended after the sweep
	swept := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$sessions", bson.A{}}}}},
		{Key: "as", Value: "s"},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$and", Value: bson.A{
				isActiveExpr(),
				bson.D{{Key: "$lt", Value: bson.A{"$$s.start_time", now.Add(-ttl)}}},
			}}}},
			{Key: "then", Value: bson.D{{Key: "$mergeObjects", Value: bson.A{"$$s", bson.D{
				{Key: "end_time", Value: bson.D{{Key: "$add", Value: bson.A{"$$s.start_time", ttlMS}}}},
				{Key: "duration", Value: ttlMS},
				{Key: "expired", Value: true},
			}}}}},
			{Key: "else", Value: "$$s"},
		}}}},
	}}}

	// $literal keeps the new entry from being parsed as an expression
	opened := bson.D{{Key: "$literal", Value: LoginSession{SessionID: sessionID, StartTime: now}}}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "sessions", Value: bson.D{{Key: "$concatArrays", Value: bson.A{swept, bson.A{opened}}}}},
			{Key: "updated_at", Value: now},
		}}},
	}

	res, err := u.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSession appends an active entry for sessionID unless one already
// exists. The filter and the push are one operation, so concurrent requests on
// the same session never produce duplicates. Returns true when appended.
func (u *UsersStore) EnsureSession(ctx context.Context, userID bson.ObjectID, sessionID string, now time.Time) (bool, error) {
	now = now.UTC()
	filter := bson.D{
		{Key: "_id", Value: userID},
		// only match when no active entry for this session id exists yet
		{Key: "sessions", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "session_id", Value: sessionID},
			{Key: "end_time", Value: bson.D{{Key: "$exists", Value: false}}},
		}}}}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "sessions", Value: LoginSession{SessionID: sessionID, StartTime: now}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}

	res, err := u.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("ensure session: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

// CloseSession ends the active entry for sessionID at now (logout). Returns
// false when there was no active entry to close.
func (u *UsersStore) CloseSession(ctx context.Context, userID bson.ObjectID, sessionID string, now time.Time) (bool, error) {
	now = now.UTC()
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "sessions", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "session_id", Value: sessionID},
			{Key: "end_time", Value: bson.D{{Key: "$exists", Value: false}}},
		}}}},
	}

	closed := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: "$sessions"},
		{Key: "as", Value: "s"},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$and", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$$s.session_id", bson.D{{Key: "$literal", Value: sessionID}}}}},
				isActiveExpr(),
			}}}},
			{Key: "then", Value: bson.D{{Key: "$mergeObjects", Value: bson.A{"$$s", bson.D{
				{Key: "end_time", Value: now},
				{Key: "duration", Value: bson.D{{Key: "$subtract", Value: bson.A{now, "$$s.start_time"}}}},
				{Key: "expired", Value: false},
			}}}}},
			{Key: "else", Value: "$$s"},
		}}}},
	}}}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "sessions", Value: closed},
			{Key: "updated_at", Value: now},
		}}},
	}

	res, err := u.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("close session: %w", err)
	}
	return res.MatchedCount > 0, nil
}

// isActiveExpr matches a ledger entry ($$s) that has no end_time yet.
func isActiveExpr() bson.D {
	return bson.D{{Key: "$eq", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$$s.end_time", nil}}},
		nil,
	}}}
}
