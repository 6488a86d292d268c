// Package mongostore connects to the document store holding carts, pending checkouts
// and user profiles.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CartsCollection     = "carts"
	CheckoutsCollection = "checkouts"
	ProfilesCollection  = "profiles"

	// checkoutTTL outlives any provider's approval window.
	checkoutTTL = 30 * 24 * time.Hour
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" || dbName == "" {
		return nil, fmt.Errorf("mongo uri and database name are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{Client: client, DB: client.Database(dbName)}, nil
}

func (s *Store) Carts() *mongo.Collection     { return s.DB.Collection(CartsCollection) }
func (s *Store) Checkouts() *mongo.Collection { return s.DB.Collection(CheckoutsCollection) }
func (s *Store) Profiles() *mongo.Collection  { return s.DB.Collection(ProfilesCollection) }

// EnsureIndexes creates the secondary indexes the repositories query by.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.Carts().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("carts index: %w", err)
	}
	if _, err := s.Checkouts().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(checkoutTTL.Seconds())),
	}); err != nil {
		return fmt.Errorf("checkouts index: %w", err)
	}
	if _, err := s.Profiles().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetSparse(true),
	}); err != nil {
		return fmt.Errorf("profiles index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}
