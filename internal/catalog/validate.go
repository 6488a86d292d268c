package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid product")

// NewProduct validates a creation payload and returns a product with a fresh id.
func NewProduct(in CreateProductRequest) (*Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	price, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	return &Product{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Category:    normalizeLabel(in.Category),
		Tag:         normalizeLabel(in.Tag),
		Sizes:       cleanList(in.Sizes),
		ImageURLs:   cleanList(in.ImageURLs),
	}, nil
}

// NewPatch validates a partial update. An empty patch is rejected.
func NewPatch(in UpdateProductRequest) (Patch, error) {
	var p Patch
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return Patch{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		p.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		p.Description = &d
	}
	if in.Price != nil {
		price, err := ParsePrice(*in.Price)
		if err != nil {
			return Patch{}, err
		}
		s := price.StringFixed(2)
		p.Price = &s
	}
	if in.Category != nil {
		c := normalizeLabel(*in.Category)
		p.Category = &c
	}
	if in.Tag != nil {
		t := normalizeLabel(*in.Tag)
		p.Tag = &t
	}
	if in.Sizes != nil {
		s := cleanList(*in.Sizes)
		p.Sizes = &s
	}
	if in.ImageURLs != nil {
		u := cleanList(*in.ImageURLs)
		p.ImageURLs = &u
	}
	if p.empty() {
		return Patch{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return p, nil
}

// ParsePrice accepts a positive decimal with at most two fractional digits.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: price is required", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", ErrInvalidInput, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%w: price has more than two decimals", ErrInvalidInput)
	}
	return d, nil
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// cleanList trims entries, drops blanks and duplicates, keeping first-seen order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
