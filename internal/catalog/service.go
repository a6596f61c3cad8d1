package catalog

import (
	"context"
	"errors"

	"github.com/gvstock/gvstock/internal/shared"
)

// Service is a thin CRUD layer: the catalog exists mainly as the stock
// mirror's home table and as product master data for orders.
type Service struct {
	repo  RepositoryPort
	cache *ProductCache
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache *ProductCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create adds a product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	if input.Name == "" {
		return Product{}, shared.NewValidationError("name", "name required")
	}
	if input.SKU == "" {
		return Product{}, shared.NewValidationError("sku", "sku required")
	}
	if input.Price < 0 {
		return Product{}, shared.NewValidationError("price", "cannot be negative")
	}
	product, err := s.repo.Insert(ctx, input)
	if err != nil {
		if errors.Is(err, ErrDuplicateSKU) {
			return Product{}, shared.NewValidationError("sku", "sku already exists")
		}
		return Product{}, err
	}
	return product, nil
}

// Update edits product master data and drops the cached entry.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Product, error) {
	if input.ProductID == 0 {
		return Product{}, shared.NewValidationError("product_id", "product required")
	}
	if input.Name == "" {
		return Product{}, shared.NewValidationError("name", "name required")
	}
	if input.Price < 0 {
		return Product{}, shared.NewValidationError("price", "cannot be negative")
	}
	product, err := s.repo.Update(ctx, input)
	if err != nil {
		return Product{}, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateProduct(ctx, input.ProductID)
	}
	return product, nil
}

// Get reads a product through the cache.
func (s *Service) Get(ctx context.Context, productID int64) (Product, error) {
	if productID == 0 {
		return Product{}, shared.NewValidationError("product_id", "product required")
	}
	if s.cache == nil {
		return s.repo.Get(ctx, productID)
	}
	return s.cache.GetProduct(ctx, productID, func(ctx context.Context) (Product, error) {
		return s.repo.Get(ctx, productID)
	})
}

// List pages through products. Listings bypass the cache; only single
// product reads are hot enough to cache.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	return s.repo.List(ctx, filter)
}
