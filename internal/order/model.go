package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at checkout.
const (
	MethodPayPal = "paypal"
	MethodStripe = "stripe"
)

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	UserEmail       string          `json:"user_email,omitempty"`
	Status          Status          `json:"status" swaggertype:"string" example:"placed"`
	Currency        string          `json:"currency" example:"USD"`
	Subtotal        decimal.Decimal `json:"subtotal" swaggertype:"string" example:"99.80"`
	Tax             decimal.Decimal `json:"tax" swaggertype:"string" example:"9.98"`
	Shipping        decimal.Decimal `json:"shipping" swaggertype:"string" example:"5.99"`
	Total           decimal.Decimal `json:"total" swaggertype:"string" example:"115.77"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	BillingAddress  *Address        `json:"billing_address,omitempty"`
	PaymentMethod   string          `json:"payment_method" example:"paypal"`
	PaymentID       string          `json:"payment_id"`
	Items           []Item          `json:"items,omitempty"`
	History         []HistoryEntry  `json:"status_history,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	Title        string          `json:"title"`
	SelectedSize string          `json:"selected_size,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"49.90"`
}

// HistoryEntry is one line of the append-only status log.
type HistoryEntry struct {
	Status    Status    `json:"status" swaggertype:"string"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Address is the snapshot stored on the order; later address-book edits don't touch it.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Phone   string `json:"phone,omitempty"`
}
