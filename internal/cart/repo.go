package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Get(ctx context.Context, key string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, key string) error
}

type MongoRepo struct{ col *mongo.Collection }

func NewMongoRepo(col *mongo.Collection) *MongoRepo { return &MongoRepo{col: col} }

type itemDoc struct {
	ProductID    string               `bson:"productId"`
	Title        string               `bson:"title"`
	Price        primitive.Decimal128 `bson:"price"`
	Quantity     int                  `bson:"quantity"`
	SelectedSize string               `bson:"selectedSize,omitempty"`
	ImageURL     string               `bson:"imageUrl,omitempty"`
}

type cartDoc struct {
	Key       string    `bson:"_id"`
	Items     []itemDoc `bson:"items"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (r *MongoRepo) Get(ctx context.Context, key string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc cartDoc
	err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

// Save replaces the whole document; the last writer wins.
func (r *MongoRepo) Save(ctx context.Context, c *Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc, err := toDoc(c)
	if err != nil {
		return err
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": c.Key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoRepo) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.col.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func toDoc(c *Cart) (cartDoc, error) {
	doc := cartDoc{Key: c.Key, Items: make([]itemDoc, 0, len(c.Items)), UpdatedAt: c.UpdatedAt}
	for _, it := range c.Items {
		price, err := primitive.ParseDecimal128(it.Price.String())
		if err != nil {
			return cartDoc{}, fmt.Errorf("price of %s: %w", it.ProductID, err)
		}
		doc.Items = append(doc.Items, itemDoc{
			ProductID:    it.ProductID,
			Title:        it.Title,
			Price:        price,
			Quantity:     it.Quantity,
			SelectedSize: it.SelectedSize,
			ImageURL:     it.ImageURL,
		})
	}
	return doc, nil
}

func fromDoc(doc cartDoc) (*Cart, error) {
	c := &Cart{Key: doc.Key, Items: make([]Item, 0, len(doc.Items)), UpdatedAt: doc.UpdatedAt}
	for _, d := range doc.Items {
		price, err := decimal.NewFromString(d.Price.String())
		if err != nil {
			return nil, fmt.Errorf("price of %s: %w", d.ProductID, err)
		}
		c.Items = append(c.Items, Item{
			ProductID:    d.ProductID,
			Title:        d.Title,
			Price:        price,
			Quantity:     d.Quantity,
			SelectedSize: d.SelectedSize,
			ImageURL:     d.ImageURL,
		})
	}
	return c, nil
}
