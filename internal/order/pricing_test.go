package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuote(t *testing.T) {
	q := DefaultPricing().Quote([]Line{
		{Price: dec("49.90"), Quantity: 2},
		{Price: dec("15.00"), Quantity: 1},
	})
	assert.Equal(t, "114.80", q.Subtotal.StringFixed(2))
	assert.Equal(t, "11.48", q.Tax.StringFixed(2))
	assert.Equal(t, "5.99", q.Shipping.StringFixed(2))
	assert.Equal(t, "132.27", q.Total.StringFixed(2))
}

func TestQuote_RoundsTaxToCents(t *testing.T) {
	q := Pricing{TaxRate: dec("0.0825"), Shipping: decimal.Zero}.Quote([]Line{{Price: dec("9.99"), Quantity: 3}})
	assert.Equal(t, "29.97", q.Subtotal.StringFixed(2))
	assert.True(t, q.Tax.Equal(dec("2.47")), q.Tax.String())
	assert.True(t, q.Total.Equal(dec("32.44")), q.Total.String())
}

func TestQuote_Empty(t *testing.T) {
	q := DefaultPricing().Quote(nil)
	assert.True(t, q.Total.IsZero())
}
