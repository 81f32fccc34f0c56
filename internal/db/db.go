// Package db manages MongoDB connections and collections.
package db

import (
	"context" // For connection timeout/cancellation
	"fmt"     // Error formatting
	"time"    // Duration for timeouts

	"go.mongodb.org/mongo-driver/v2/bson"           // Index key documents
	"go.mongodb.org/mongo-driver/v2/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"  // MongoDB options
	"go.mongodb.org/mongo-driver/v2/mongo/readpref" // MongoDB read preference
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "chat_db"

// Collection names
const (
	UsersCollectionName    = "users"
	ChatsCollectionName    = "chat_histories"
	SessionsCollectionName = "sessions"
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, shared by all requests)
	client *mongo.Client

	// db is the application database; users, chat_histories and sessions live here
	db *mongo.Database
}

// New connects to MongoDB and returns a Client for the given database.
func New(ctx context.Context, mongoURI, database string) (*Client, error) {
	if database == "" {
		database = DefaultDatabase
	}

	// SetConnectTimeout: fail fast if MongoDB is unreachable
	opts := options.Client().
		ApplyURI(mongoURI).                 // Parse connection string
		SetConnectTimeout(10 * time.Second) // Max time to connect

	// Creates the client; connections are established lazily
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping with its own deadline so a dead server fails startup quickly
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

// UsersCollection returns the users collection (user documents with embedded session ledger).
func (c *Client) UsersCollection() *mongo.Collection {
	return c.db.Collection(UsersCollectionName)
}

// ChatsCollection returns the chat_histories collection (one bucket per user per day).
func (c *Client) ChatsCollection() *mongo.Collection {
	return c.db.Collection(ChatsCollectionName)
}

// SessionsCollection returns the server-side transport session collection.
func (c *Client) SessionsCollection() *mongo.Collection {
	return c.db.Collection(SessionsCollectionName)
}

// Ping checks that the primary is reachable; used by health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the stores rely on for correctness.
func (c *Client) CreateIndexes(ctx context.Context) error {
	// ===== USERS =====
	// Unique email: duplicate registration surfaces as a duplicate key error
	usersIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := c.UsersCollection().Indexes().CreateOne(ctx, usersIndex); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	// ===== CHAT HISTORIES =====
	chatIndexes := []mongo.IndexModel{
		{
			// Exactly one bucket per (user, day); makes the daily upsert race-safe
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// History listing: newest bucket first for a user
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := c.ChatsCollection().Indexes().CreateMany(ctx, chatIndexes); err != nil {
		return fmt.Errorf("failed to create chat history indexes: %w", err)
	}

	// ===== SESSIONS =====
	// TTL index: MongoDB removes transport sessions once expires_at passes
	sessionsIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := c.SessionsCollection().Indexes().CreateOne(ctx, sessionsIndex); err != nil {
		return fmt.Errorf("failed to create sessions index: %w", err)
	}

	return nil
}
