package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/product-api/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidID       = errors.New("invalid product id")
	ErrMissingField    = errors.New("missing required product field")
)

// ProductRepository defines the interface for product data operations.
// Any error other than ErrProductNotFound is a store failure.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (*domain.Product, error)
}
