package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// stripeSessions is the subset of session.Client used here.
type stripeSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Stripe charges through hosted Checkout Sessions. Capture only reads the session back,
// Stripe settles the charge when the customer completes the page.
type Stripe struct {
	sessions   stripeSessions
	successURL string
	cancelURL  string
}

func NewStripe(secretKey, successURL, cancelURL string) (*Stripe, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	return &Stripe{
		sessions:   session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		successURL: successURL,
		cancelURL:  cancelURL,
	}, nil
}

func (s *Stripe) Name() string { return "stripe" }

func (s *Stripe) CreateOrder(ctx context.Context, req Request) (ProviderOrder, error) {
	currency := strings.ToLower(req.Currency)
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Metadata:   map[string]string{"cart": req.Reference},
	}
	params.Context = ctx
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if req.Reference != "" {
		params.ClientReferenceID = stripe.String(req.Reference)
	}
	for _, l := range req.Lines {
		params.LineItems = append(params.LineItems, stripeLine(currency, l))
	}
	if req.Tax.IsPositive() {
		params.LineItems = append(params.LineItems, stripeLine(currency, Line{Title: "Tax", UnitPrice: req.Tax, Quantity: 1}))
	}
	if req.Shipping.IsPositive() {
		params.LineItems = append(params.LineItems, stripeLine(currency, Line{Title: "Shipping", UnitPrice: req.Shipping, Quantity: 1}))
	}

	cs, err := s.sessions.New(params)
	if err != nil {
		return ProviderOrder{}, providerErr("stripe", "create session", err)
	}
	return stripeOrder(cs), nil
}

func (s *Stripe) Capture(ctx context.Context, id string) (ProviderOrder, error) {
	return s.Lookup(ctx, id)
}

func (s *Stripe) Lookup(ctx context.Context, id string) (ProviderOrder, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := s.sessions.Get(id, params)
	if err != nil {
		return ProviderOrder{}, providerErr("stripe", "get session", err)
	}
	return stripeOrder(cs), nil
}

// minorUnits converts to cents; zero-decimal currencies are not supported.
func minorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func stripeLine(currency string, l Line) *stripe.CheckoutSessionLineItemParams {
	pd := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(l.Title)}
	if l.ImageURL != "" {
		pd.Images = stripe.StringSlice([]string{l.ImageURL})
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(currency),
			ProductData: pd,
			UnitAmount:  stripe.Int64(minorUnits(l.UnitPrice)),
		},
		Quantity: stripe.Int64(int64(l.Quantity)),
	}
}

func stripeOrder(cs *stripe.CheckoutSession) ProviderOrder {
	po := ProviderOrder{ID: cs.ID, ApproveURL: cs.URL}
	if cs.Currency != "" {
		po.Amount = decimal.New(cs.AmountTotal, -2)
		po.Currency = strings.ToUpper(string(cs.Currency))
	}
	switch {
	case cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		po.Status = StatusCompleted
	case cs.Status == stripe.CheckoutSessionStatusExpired:
		po.Status = StatusFailed
	case cs.Status == stripe.CheckoutSessionStatusComplete:
		po.Status = StatusApproved
	case cs.Status == stripe.CheckoutSessionStatusOpen:
		po.Status = StatusCreated
	default:
		po.Status = StatusUnknown
	}
	if po.Status == StatusCompleted {
		po.PaymentID = cs.ID
		if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
			po.PaymentID = cs.PaymentIntent.ID
		}
	}
	return po
}
