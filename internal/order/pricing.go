package order

import "github.com/shopspring/decimal"

// Pricing holds the checkout charges applied on top of the line subtotal.
type Pricing struct {
	TaxRate  decimal.Decimal
	Shipping decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:  decimal.RequireFromString("0.10"),
		Shipping: decimal.RequireFromString("5.99"),
	}
}

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal" swaggertype:"string"`
	Tax      decimal.Decimal `json:"tax" swaggertype:"string"`
	Shipping decimal.Decimal `json:"shipping" swaggertype:"string"`
	Total    decimal.Decimal `json:"total" swaggertype:"string"`
}

// Line is a priced quantity fed to Quote.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Quote computes subtotal, tax and total rounded to cents. An empty order ships free.
func (p Pricing) Quote(lines []Line) Quote {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	sub = sub.Round(2)
	tax := sub.Mul(p.TaxRate).Round(2)
	ship := decimal.Zero
	if len(lines) > 0 {
		ship = p.Shipping.Round(2)
	}
	return Quote{
		Subtotal: sub,
		Tax:      tax,
		Shipping: ship,
		Total:    sub.Add(tax).Add(ship),
	}
}
