package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/product-api/internal/domain"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerRepository guards another ProductRepository with a circuit breaker.
// Failures caused by the request itself (unknown id, bad id, missing field,
// a caller that went away) do not count towards opening the breaker.
type BreakerRepository struct {
	next ProductRepository
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerRepository(next ProductRepository, settings BreakerSettings, logger *slog.Logger) *BreakerRepository {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "product-store",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isRequestError,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return &BreakerRepository{next: next, cb: cb}
}

func isRequestError(err error) bool {
	return err == nil ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, context.Canceled)
}

func (b *BreakerRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.ListProducts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}

func (b *BreakerRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return b.executeOne(func() (*domain.Product, error) {
		return b.next.GetProduct(ctx, id)
	})
}

func (b *BreakerRepository) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return b.executeOne(func() (*domain.Product, error) {
		return b.next.CreateProduct(ctx, in)
	})
}

func (b *BreakerRepository) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	return b.executeOne(func() (*domain.Product, error) {
		return b.next.UpdateProduct(ctx, id, in)
	})
}

func (b *BreakerRepository) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	return b.executeOne(func() (*domain.Product, error) {
		return b.next.DeleteProduct(ctx, id)
	})
}

func (b *BreakerRepository) executeOne(fn func() (*domain.Product, error)) (*domain.Product, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}
