// Package payment wraps the payment processors behind one Provider interface.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	// ErrProvider wraps failures reported by the processor or its transport.
	ErrProvider = errors.New("payment provider error")
)

// Status is a provider order state normalized across processors.
type Status string

const (
	StatusCreated   Status = "created"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

type Line struct {
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  string
}

// Request describes a charge. Amount must already include Tax and Shipping.
type Request struct {
	Amount    decimal.Decimal
	Currency  string
	Lines     []Line
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Email     string
	Reference string
}

// ProviderOrder is the processor-side pending transaction.
type ProviderOrder struct {
	ID         string `json:"id"`
	Status     Status `json:"status" swaggertype:"string" example:"created"`
	ApproveURL string `json:"approve_url,omitempty"`
	// PaymentID is the processor's charge reference once captured.
	PaymentID string `json:"payment_id,omitempty"`
	// Amount is what the processor reports for the order; zero when it reports nothing.
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"132.27"`
	Currency string          `json:"currency,omitempty" example:"USD"`
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req Request) (ProviderOrder, error)
	Capture(ctx context.Context, id string) (ProviderOrder, error)
	Lookup(ctx context.Context, id string) (ProviderOrder, error)
}

// Registry resolves providers by the name used in URLs.
type Registry map[string]Provider

func NewRegistry(providers ...Provider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for n := range r {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func providerErr(provider, op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrProvider, provider, op, err)
}
