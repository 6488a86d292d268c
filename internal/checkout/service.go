// Package checkout turns a cart into a provider payment and, once the payment
// completes, into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/storefront-ecom/internal/cart"
	"github.com/MikeMC777/storefront-ecom/internal/catalog"
	"github.com/MikeMC777/storefront-ecom/internal/order"
	"github.com/MikeMC777/storefront-ecom/internal/payment"
	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

var (
	ErrInvalidInput        = errors.New("invalid checkout input")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrAmountMismatch      = errors.New("amount does not match cart total")
	ErrProductUnavailable  = errors.New("product no longer available")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrAddressRequired     = errors.New("shipping address required")
	ErrChargeMismatch      = errors.New("charged amount does not match checkout total")
)

type Carts interface {
	Get(ctx context.Context, key string) (*cart.Cart, error)
	Clear(ctx context.Context, key string) error
}

type Products interface {
	FetchProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Profiles interface {
	DefaultAddress(ctx context.Context, uid string) (profile.Address, error)
	AppendOrder(ctx context.Context, uid string, ref profile.OrderRef) error
}

type Orders interface {
	Place(ctx context.Context, d order.Draft) (*order.Order, error)
	ByPayment(ctx context.Context, method, paymentID string) (*order.Order, error)
}

type Config struct {
	Currency string
	Pricing  order.Pricing
	// MaxConcurrent bounds parallel catalog lookups; defaults to 10.
	MaxConcurrent int
}

type Service struct {
	carts     Carts
	products  Products
	profiles  Profiles
	orders    Orders
	pending   PendingStore
	providers payment.Registry
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

func NewService(carts Carts, products Products, profiles Profiles, orders Orders, pending PendingStore,
	providers payment.Registry, cfg Config, log *slog.Logger) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return &Service{
		carts:     carts,
		products:  products,
		profiles:  profiles,
		orders:    orders,
		pending:   pending,
		providers: providers,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Summary is a priced cart.
type Summary struct {
	Cart     *cart.Cart  `json:"-"`
	Quote    order.Quote `json:"quote"`
	Currency string      `json:"currency"`
}

func (s *Service) summarize(c *cart.Cart) Summary {
	lines := make([]order.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, order.Line{Price: it.Price, Quantity: it.Quantity})
	}
	return Summary{Cart: c, Quote: s.cfg.Pricing.Quote(lines), Currency: s.cfg.Currency}
}

// Quote prices the cart after confirming every product is still sold in the chosen size.
func (s *Service) Quote(ctx context.Context, cartKey string) (Summary, error) {
	c, err := s.carts.Get(ctx, cartKey)
	if err != nil {
		return Summary{}, err
	}
	if c.Empty() {
		return Summary{}, ErrEmptyCart
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, it := range c.Items {
		g.Go(func() error {
			p, err := s.products.FetchProduct(gctx, it.ProductID)
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrProductUnavailable, it.Title)
			}
			if err != nil {
				return fmt.Errorf("check product %s: %w", it.ProductID, err)
			}
			if !p.HasSize(it.SelectedSize) {
				return fmt.Errorf("%w: %s in size %s", ErrProductUnavailable, it.Title, it.SelectedSize)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s.summarize(c), nil
}

type PaymentRequest struct {
	Provider string
	CartKey  string
	UserID   string
	// Amount is what the client displayed; nil skips the comparison.
	Amount   *decimal.Decimal
	Currency string
	Email    string
}

type PaymentResult struct {
	Provider      string                `json:"provider"`
	ProviderOrder payment.ProviderOrder `json:"provider_order"`
	Quote         order.Quote           `json:"quote"`
	Currency      string                `json:"currency"`
}

// CreatePayment opens a provider order for the cart total and keeps the priced cart
// under the provider order id for Capture.
func (s *Service) CreatePayment(ctx context.Context, req PaymentRequest) (PaymentResult, error) {
	if req.UserID == "" {
		return PaymentResult{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	p, err := s.providers.Get(req.Provider)
	if err != nil {
		return PaymentResult{}, err
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, s.cfg.Currency) {
		return PaymentResult{}, fmt.Errorf("%w: currency %s not accepted", ErrInvalidInput, req.Currency)
	}
	sum, err := s.Quote(ctx, req.CartKey)
	if err != nil {
		return PaymentResult{}, err
	}
	if req.Amount != nil && !req.Amount.Equal(sum.Quote.Total) {
		return PaymentResult{}, fmt.Errorf("%w: got %s, cart total is %s",
			ErrAmountMismatch, req.Amount.StringFixed(2), sum.Quote.Total.StringFixed(2))
	}

	lines := make([]payment.Line, 0, len(sum.Cart.Items))
	for _, it := range sum.Cart.Items {
		lines = append(lines, payment.Line{Title: it.Title, UnitPrice: it.Price, Quantity: it.Quantity, ImageURL: it.ImageURL})
	}
	po, err := p.CreateOrder(ctx, payment.Request{
		Amount:    sum.Quote.Total,
		Currency:  s.cfg.Currency,
		Lines:     lines,
		Tax:       sum.Quote.Tax,
		Shipping:  sum.Quote.Shipping,
		Email:     req.Email,
		Reference: req.CartKey,
	})
	if err != nil {
		return PaymentResult{}, err
	}
	if err := s.pending.Save(ctx, &Pending{
		Provider:        p.Name(),
		ProviderOrderID: po.ID,
		UserID:          req.UserID,
		CartKey:         req.CartKey,
		Items:           append([]cart.Item(nil), sum.Cart.Items...),
		Quote:           sum.Quote,
		Currency:        s.cfg.Currency,
		CreatedAt:       s.now().UTC(),
	}); err != nil {
		return PaymentResult{}, fmt.Errorf("save checkout: %w", err)
	}
	s.log.InfoContext(ctx, "payment created",
		slog.String("provider", p.Name()),
		slog.String("provider_order", po.ID),
		slog.String("total", sum.Quote.Total.StringFixed(2)))
	return PaymentResult{Provider: p.Name(), ProviderOrder: po, Quote: sum.Quote, Currency: s.cfg.Currency}, nil
}

type CaptureRequest struct {
	Provider        string
	ProviderOrderID string
	UserID          string
	Email           string
	ShippingAddress *order.Address
	BillingAddress  *order.Address
}

// Capture settles a provider order and records it from the checkout saved by
// CreatePayment. Repeating a capture for the same provider order returns the order
// recorded the first time. Only the user who started the checkout may capture it.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*order.Order, error) {
	if req.ProviderOrderID == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: provider order id and user are required", ErrInvalidInput)
	}
	p, err := s.providers.Get(req.Provider)
	if err != nil {
		return nil, err
	}
	method := p.Name()

	existing, err := s.orders.ByPayment(ctx, method, req.ProviderOrderID)
	if err == nil {
		if existing.UserID != req.UserID {
			return nil, fmt.Errorf("%w: %s order %s", order.ErrNotOwner, method, req.ProviderOrderID)
		}
		return existing, nil
	}
	if !errors.Is(err, order.ErrNotFound) {
		return nil, err
	}

	pend, err := s.pending.Get(ctx, method, req.ProviderOrderID)
	if err != nil {
		return nil, err
	}
	if pend.UserID != req.UserID {
		return nil, fmt.Errorf("%w: %s order %s", order.ErrNotOwner, method, req.ProviderOrderID)
	}

	po, err := p.Capture(ctx, req.ProviderOrderID)
	if err != nil {
		s.log.WarnContext(ctx, "capture failed, checking provider order",
			slog.String("provider", method),
			slog.String("provider_order", req.ProviderOrderID),
			slog.Any("err", err))
		po, err = p.Lookup(ctx, req.ProviderOrderID)
		if err != nil {
			return nil, err
		}
	}
	if po.Status != payment.StatusCompleted {
		return nil, fmt.Errorf("%w: %s order %s is %s", ErrPaymentNotCompleted, method, req.ProviderOrderID, po.Status)
	}
	if po.Currency == "" {
		// The provider order always carries the amount, capture responses may not.
		if looked, err := p.Lookup(ctx, req.ProviderOrderID); err == nil {
			po.Amount, po.Currency = looked.Amount, looked.Currency
		}
	}
	if !po.Amount.Equal(pend.Quote.Total) || !strings.EqualFold(po.Currency, pend.Currency) {
		s.log.ErrorContext(ctx, "charged amount differs from checkout",
			slog.String("provider", method),
			slog.String("provider_order", req.ProviderOrderID),
			slog.String("charged", po.Amount.StringFixed(2)+" "+po.Currency),
			slog.String("expected", pend.Quote.Total.StringFixed(2)+" "+pend.Currency))
		return nil, fmt.Errorf("%w: charged %s %s, expected %s %s", ErrChargeMismatch,
			po.Amount.StringFixed(2), po.Currency, pend.Quote.Total.StringFixed(2), pend.Currency)
	}

	ship, bill, err := s.addresses(ctx, req)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(pend.Items))
	for _, it := range pend.Items {
		items = append(items, order.Item{
			ProductID:    it.ProductID,
			Title:        it.Title,
			SelectedSize: it.SelectedSize,
			Quantity:     it.Quantity,
			Price:        it.Price,
		})
	}
	o, err := s.orders.Place(ctx, order.Draft{
		UserID:          req.UserID,
		UserEmail:       req.Email,
		Currency:        pend.Currency,
		Items:           items,
		Quote:           pend.Quote,
		ShippingAddress: ship,
		BillingAddress:  bill,
		PaymentMethod:   method,
		PaymentID:       req.ProviderOrderID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.profiles.AppendOrder(ctx, req.UserID, orderRef(o)); err != nil {
		s.log.WarnContext(ctx, "append order to profile failed",
			slog.String("order_id", o.ID), slog.Any("err", err))
	}
	if err := s.carts.Clear(ctx, pend.CartKey); err != nil {
		s.log.WarnContext(ctx, "clear cart failed",
			slog.String("order_id", o.ID), slog.Any("err", err))
	}
	return o, nil
}

func orderRef(o *order.Order) profile.OrderRef {
	return profile.OrderRef{
		OrderID:   o.ID,
		Status:    string(o.Status),
		Total:     o.Total.StringFixed(2),
		Currency:  o.Currency,
		CreatedAt: o.CreatedAt,
	}
}

// ProfileNotifier keeps the order summary on the customer's profile in step with
// status changes.
type ProfileNotifier struct {
	Profiles Profiles
}

func (n ProfileNotifier) StatusChanged(ctx context.Context, o *order.Order, _ order.Status) error {
	return n.Profiles.AppendOrder(ctx, o.UserID, orderRef(o))
}

// addresses uses the request snapshot, else the profile default. Billing defaults to shipping.
func (s *Service) addresses(ctx context.Context, req CaptureRequest) (*order.Address, *order.Address, error) {
	ship := req.ShippingAddress
	if ship == nil {
		a, err := s.profiles.DefaultAddress(ctx, req.UserID)
		if errors.Is(err, profile.ErrAddressNotFound) || errors.Is(err, profile.ErrNotFound) {
			return nil, nil, ErrAddressRequired
		}
		if err != nil {
			return nil, nil, fmt.Errorf("default address: %w", err)
		}
		ship = FromProfileAddress(a)
	}
	bill := req.BillingAddress
	if bill == nil {
		cp := *ship
		bill = &cp
	}
	return ship, bill, nil
}

func FromProfileAddress(a profile.Address) *order.Address {
	return &order.Address{
		Name:    a.Name,
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Phone:   a.Phone,
	}
}
