package checkout

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

	"github.com/MikeMC777/storefront-ecom/internal/cart"
	"github.com/MikeMC777/storefront-ecom/internal/order"
)

var ErrPaymentNotFound = errors.New("no checkout for provider order")

// Pending is the cart as it was priced and sent to the provider. Capture records
// the order from it, never from the live cart.
type Pending struct {
	Provider        string
	ProviderOrderID string
	UserID          string
	CartKey         string
	Items           []cart.Item
	Quote           order.Quote
	Currency        string
	CreatedAt       time.Time
}

type PendingStore interface {
	Save(ctx context.Context, p *Pending) error
	Get(ctx context.Context, provider, providerOrderID string) (*Pending, error)
}

// MongoPending keeps one document per provider order.
type MongoPending struct{ col *mongo.Collection }

func NewMongoPending(col *mongo.Collection) *MongoPending { return &MongoPending{col: col} }

type pendingItemDoc struct {
	ProductID    string               `bson:"productId"`
	Title        string               `bson:"title"`
	Price        primitive.Decimal128 `bson:"price"`
	Quantity     int                  `bson:"quantity"`
	SelectedSize string               `bson:"selectedSize,omitempty"`
	ImageURL     string               `bson:"imageUrl,omitempty"`
}

type pendingDoc struct {
	ID              string               `bson:"_id"`
	Provider        string               `bson:"provider"`
	ProviderOrderID string               `bson:"providerOrderId"`
	UserID          string               `bson:"userId"`
	CartKey         string               `bson:"cartKey"`
	Items           []pendingItemDoc     `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	Tax             primitive.Decimal128 `bson:"tax"`
	Shipping        primitive.Decimal128 `bson:"shipping"`
	Total           primitive.Decimal128 `bson:"total"`
	Currency        string               `bson:"currency"`
	CreatedAt       time.Time            `bson:"createdAt"`
}

func pendingID(provider, providerOrderID string) string {
	return provider + ":" + providerOrderID
}

func (r *MongoPending) Save(ctx context.Context, p *Pending) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc, err := toPendingDoc(p)
	if err != nil {
		return err
	}
	_, err = r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoPending) Get(ctx context.Context, provider, providerOrderID string) (*Pending, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc pendingDoc
	err := r.col.FindOne(ctx, bson.M{"_id": pendingID(provider, providerOrderID)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromPendingDoc(doc)
}

func dec128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func toPendingDoc(p *Pending) (pendingDoc, error) {
	doc := pendingDoc{
		ID:              pendingID(p.Provider, p.ProviderOrderID),
		Provider:        p.Provider,
		ProviderOrderID: p.ProviderOrderID,
		UserID:          p.UserID,
		CartKey:         p.CartKey,
		Items:           make([]pendingItemDoc, 0, len(p.Items)),
		Currency:        p.Currency,
		CreatedAt:       p.CreatedAt,
	}
	for _, it := range p.Items {
		price, err := dec128(it.Price)
		if err != nil {
			return pendingDoc{}, fmt.Errorf("price of %s: %w", it.ProductID, err)
		}
		doc.Items = append(doc.Items, pendingItemDoc{
			ProductID:    it.ProductID,
			Title:        it.Title,
			Price:        price,
			Quantity:     it.Quantity,
			SelectedSize: it.SelectedSize,
			ImageURL:     it.ImageURL,
		})
	}
	var err error
	for _, f := range []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.Subtotal, p.Quote.Subtotal},
		{&doc.Tax, p.Quote.Tax},
		{&doc.Shipping, p.Quote.Shipping},
		{&doc.Total, p.Quote.Total},
	} {
		if *f.dst, err = dec128(f.src); err != nil {
			return pendingDoc{}, fmt.Errorf("quote: %w", err)
		}
	}
	return doc, nil
}

func fromPendingDoc(doc pendingDoc) (*Pending, error) {
	p := &Pending{
		Provider:        doc.Provider,
		ProviderOrderID: doc.ProviderOrderID,
		UserID:          doc.UserID,
		CartKey:         doc.CartKey,
		Items:           make([]cart.Item, 0, len(doc.Items)),
		Currency:        doc.Currency,
		CreatedAt:       doc.CreatedAt,
	}
	for _, d := range doc.Items {
		price, err := decimal.NewFromString(d.Price.String())
		if err != nil {
			return nil, fmt.Errorf("price of %s: %w", d.ProductID, err)
		}
		p.Items = append(p.Items, cart.Item{
			ProductID:    d.ProductID,
			Title:        d.Title,
			Price:        price,
			Quantity:     d.Quantity,
			SelectedSize: d.SelectedSize,
			ImageURL:     d.ImageURL,
		})
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src primitive.Decimal128
	}{
		{&p.Quote.Subtotal, doc.Subtotal},
		{&p.Quote.Tax, doc.Tax},
		{&p.Quote.Shipping, doc.Shipping},
		{&p.Quote.Total, doc.Total},
	} {
		v, err := decimal.NewFromString(f.src.String())
		if err != nil {
			return nil, fmt.Errorf("quote: %w", err)
		}
		*f.dst = v
	}
	return p, nil
}
