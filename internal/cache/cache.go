package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/product-api/internal/domain"
)

type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache is used when no Redis is configured. Every Get is a miss.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*domain.Product, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, *domain.Product) error            { return nil }
func (NopCache) Delete(context.Context, string) error                  { return nil }
