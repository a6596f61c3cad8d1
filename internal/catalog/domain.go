package catalog

import "time"

// Product is one catalog row. Stock is a denormalized mirror maintained by
// the inventory ledger; catalog itself never computes it.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Stock     float64   `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput describes a new product.
type CreateInput struct {
	Name     string
	SKU      string
	Category string
	Price    float64
}

// UpdateInput edits a product. Stock is deliberately absent; only the
// inventory ledger moves stock.
type UpdateInput struct {
	ProductID int64
	Name      string
	Category  string
	Price     float64
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search   string
	Category string
	Page     int
	PerPage  int
}
