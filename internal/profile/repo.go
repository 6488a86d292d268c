package profile

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type Repository interface {
	Get(ctx context.Context, uid string) (*Profile, error)
	Insert(ctx context.Context, p *Profile) error
	// Save writes p only if the stored version still equals p.Version, then bumps it.
	Save(ctx context.Context, p *Profile) error
}

type MongoRepo struct{ col *mongo.Collection }

func NewMongoRepo(col *mongo.Collection) *MongoRepo { return &MongoRepo{col: col} }

func (r *MongoRepo) Get(ctx context.Context, uid string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Profile
	err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Addresses == nil {
		p.Addresses = []Address{}
	}
	if p.Orders == nil {
		p.Orders = []OrderRef{}
	}
	return &p, nil
}

func (r *MongoRepo) Insert(ctx context.Context, p *Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.Version = 1
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		p.Version = 0
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *MongoRepo) Save(ctx context.Context, p *Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": p.UserID, "version": p.Version},
		bson.M{
			"$set": bson.M{
				"email":     p.Email,
				"firstName": p.FirstName,
				"lastName":  p.LastName,
				"phone":     p.Phone,
				"addresses": p.Addresses,
				"orders":    p.Orders,
				"updatedAt": p.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	p.Version++
	return nil
}
