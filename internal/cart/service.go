package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikeMC777/storefront-ecom/internal/catalog"
)

var ErrProductNotFound = errors.New("product not found")

// ProductSource is satisfied by *catalog.Client.
type ProductSource interface {
	FetchProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Service struct {
	repo     Repository
	products ProductSource
	now      func() time.Time
}

func NewService(repo Repository, products ProductSource) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// Get returns the stored cart, or an empty one for an unknown key.
func (s *Service) Get(ctx context.Context, key string) (*Cart, error) {
	c, err := s.repo.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return New(key), nil
	}
	return c, err
}

// AddItem snapshots title, price and image from the catalog and adds qty units.
func (s *Service) AddItem(ctx context.Context, key, productID, size string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	p, err := s.products.FetchProduct(ctx, productID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.HasSize(size) {
		return nil, fmt.Errorf("%w: size %q not offered for %s", ErrInvalidInput, size, p.Title)
	}
	it := Item{ProductID: p.ID, Title: p.Title, Price: p.Price, Quantity: qty, SelectedSize: size}
	if len(p.ImageURLs) > 0 {
		it.ImageURL = p.ImageURLs[0]
	}
	return s.mutate(ctx, key, func(c *Cart) error { return c.Add(it) })
}

func (s *Service) UpdateQuantity(ctx context.Context, key, productID, size string, qty int) (*Cart, error) {
	return s.mutate(ctx, key, func(c *Cart) error { return c.UpdateQuantity(productID, size, qty) })
}

func (s *Service) RemoveItem(ctx context.Context, key, productID, size string) (*Cart, error) {
	return s.mutate(ctx, key, func(c *Cart) error { return c.Remove(productID, size) })
}

func (s *Service) Clear(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *Service) mutate(ctx context.Context, key string, fn func(*Cart) error) (*Cart, error) {
	c, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}
