package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// NUMERIC(12,2) in Postgres; serialized as a quoted decimal string.
	Price     decimal.Decimal `json:"price" swaggertype:"string" example:"49.90"`
	Category  string          `json:"category,omitempty"`
	Tag       string          `json:"tag,omitempty"`
	Sizes     []string        `json:"sizes"`
	ImageURLs []string        `json:"image_urls"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HasSize reports whether size is offered. Products without sizes accept any size.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// products found
	Items []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Title       string   `json:"title"       example:"Linen Shirt"`
	Description string   `json:"description" example:"Relaxed fit, 100% linen"`
	Price       string   `json:"price"       example:"49.90"`
	Category    string   `json:"category"    example:"men"`
	Tag         string   `json:"tag"         example:"new"`
	Sizes       []string `json:"sizes"       example:"S,M,L"`
	ImageURLs   []string `json:"image_urls"`
}

// UpdateProductRequest payload of partial update. Omitted fields are left untouched.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *string   `json:"price"`
	Category    *string   `json:"category"`
	Tag         *string   `json:"tag"`
	Sizes       *[]string `json:"sizes"`
	ImageURLs   *[]string `json:"image_urls"`
}
