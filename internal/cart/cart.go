// Package cart keeps shopping carts keyed by browser session or user.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput = errors.New("invalid cart input")
	ErrItemNotFound = errors.New("item not in cart")
	ErrNotFound     = errors.New("cart not found")
)

// Item is a cart line. Price is the catalog price when the line was added.
type Item struct {
	ProductID    string          `json:"product_id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"49.90"`
	Quantity     int             `json:"quantity"`
	SelectedSize string          `json:"selected_size,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
}

func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Cart struct {
	Key       string    `json:"key"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(key string) *Cart {
	return &Cart{Key: key, Items: []Item{}}
}

func (c *Cart) find(productID, size string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.SelectedSize == size {
			return i
		}
	}
	return -1
}

// Add appends it, or bumps the quantity of the line with the same product and size.
// The first price snapshot is kept on merge.
func (c *Cart) Add(it Item) error {
	it.ProductID = strings.TrimSpace(it.ProductID)
	if it.ProductID == "" {
		return fmt.Errorf("%w: product_id is required", ErrInvalidInput)
	}
	if it.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if it.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if i := c.find(it.ProductID, it.SelectedSize); i >= 0 {
		c.Items[i].Quantity += it.Quantity
		return nil
	}
	c.Items = append(c.Items, it)
	return nil
}

func (c *Cart) Remove(productID, size string) error {
	i := c.find(productID, size)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

// UpdateQuantity sets the line quantity; q <= 0 removes the line.
func (c *Cart) UpdateQuantity(productID, size string, q int) error {
	if q <= 0 {
		return c.Remove(productID, size)
	}
	i := c.find(productID, size)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity = q
	return nil
}

func (c *Cart) Clear() { c.Items = []Item{} }

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Total is Σ price × quantity, computed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

// View is the response shape; Count and Total are derived on each read.
type View struct {
	Key       string          `json:"key"`
	Items     []Item          `json:"items"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total" swaggertype:"string" example:"99.80"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (c *Cart) View() View {
	return View{Key: c.Key, Items: c.Items, Count: c.Count(), Total: c.Total(), UpdatedAt: c.UpdatedAt}
}

// ResolveKey picks the cart for a request: the session cart when the client sent one,
// otherwise the signed-in user's cart.
func ResolveKey(sessionID, userID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID != "" {
		if len(sessionID) > 128 || strings.HasPrefix(sessionID, "user:") {
			return "", fmt.Errorf("%w: bad cart id", ErrInvalidInput)
		}
		return "session:" + sessionID, nil
	}
	if userID != "" {
		return "user:" + userID, nil
	}
	return "", fmt.Errorf("%w: X-Cart-ID header or sign-in required", ErrInvalidInput)
}
