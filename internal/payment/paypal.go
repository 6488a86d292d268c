package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
)

// paypalAPI is the subset of *paypal.Client used here.
type paypalAPI interface {
	GetAccessToken(ctx context.Context) (*paypal.TokenResponse, error)
	CreateOrder(ctx context.Context, intent string, units []paypal.PurchaseUnitRequest, source *paypal.PaymentSource, app *paypal.ApplicationContext) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, req paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

var _ paypalAPI = (*paypal.Client)(nil)

type PayPal struct {
	api paypalAPI

	mu     sync.Mutex
	authed bool
}

func NewPayPal(clientID, secret, apiBase string) (*PayPal, error) {
	if clientID == "" || secret == "" {
		return nil, fmt.Errorf("paypal client id and secret are required")
	}
	c, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, err
	}
	return &PayPal{api: c}, nil
}

func (p *PayPal) Name() string { return "paypal" }

// auth fetches the first access token; the SDK refreshes it afterwards.
func (p *PayPal) auth(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authed {
		return nil
	}
	if _, err := p.api.GetAccessToken(ctx); err != nil {
		return providerErr("paypal", "auth", err)
	}
	p.authed = true
	return nil
}

func (p *PayPal) CreateOrder(ctx context.Context, req Request) (ProviderOrder, error) {
	if err := p.auth(ctx); err != nil {
		return ProviderOrder{}, err
	}
	o, err := p.api.CreateOrder(ctx, paypal.OrderIntentCapture, []paypal.PurchaseUnitRequest{{
		ReferenceID: req.Reference,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: strings.ToUpper(req.Currency),
			Value:    req.Amount.StringFixed(2),
		},
	}}, nil, nil)
	if err != nil {
		return ProviderOrder{}, providerErr("paypal", "create order", err)
	}
	return paypalOrder(o), nil
}

func (p *PayPal) Capture(ctx context.Context, id string) (ProviderOrder, error) {
	if err := p.auth(ctx); err != nil {
		return ProviderOrder{}, err
	}
	res, err := p.api.CaptureOrder(ctx, id, paypal.CaptureOrderRequest{})
	if err != nil {
		return ProviderOrder{}, providerErr("paypal", "capture", err)
	}
	po := ProviderOrder{ID: res.ID, Status: paypalStatus(res.Status), PaymentID: res.ID}
	if len(res.PurchaseUnits) > 0 && res.PurchaseUnits[0].Payments != nil {
		total := decimal.Zero
		for _, c := range res.PurchaseUnits[0].Payments.Captures {
			amt, cur, ok := paypalAmount(c.Amount)
			if !ok {
				continue
			}
			total = total.Add(amt)
			po.Amount, po.Currency = total, cur
		}
	}
	return po, nil
}

func (p *PayPal) Lookup(ctx context.Context, id string) (ProviderOrder, error) {
	if err := p.auth(ctx); err != nil {
		return ProviderOrder{}, err
	}
	o, err := p.api.GetOrder(ctx, id)
	if err != nil {
		return ProviderOrder{}, providerErr("paypal", "get order", err)
	}
	return paypalOrder(o), nil
}

func paypalOrder(o *paypal.Order) ProviderOrder {
	po := ProviderOrder{ID: o.ID, Status: paypalStatus(o.Status)}
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			po.ApproveURL = l.Href
			break
		}
	}
	if po.Status == StatusCompleted {
		po.PaymentID = o.ID
	}
	if len(o.PurchaseUnits) > 0 {
		if amt, cur, ok := paypalAmount(o.PurchaseUnits[0].Amount); ok {
			po.Amount, po.Currency = amt, cur
		}
	}
	return po
}

func paypalAmount(a *paypal.PurchaseUnitAmount) (decimal.Decimal, string, bool) {
	if a == nil || a.Value == "" {
		return decimal.Decimal{}, "", false
	}
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Decimal{}, "", false
	}
	return d, strings.ToUpper(a.Currency), true
}

func paypalStatus(s string) Status {
	switch strings.ToUpper(s) {
	case "CREATED", "SAVED", "PAYER_ACTION_REQUIRED":
		return StatusCreated
	case "APPROVED":
		return StatusApproved
	case "COMPLETED":
		return StatusCompleted
	case "VOIDED":
		return StatusFailed
	default:
		return StatusUnknown
	}
}
