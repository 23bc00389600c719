package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/product-api/internal/cache"
	"github.com/fjod/go_cart/product-api/internal/domain"
	"github.com/fjod/go_cart/product-api/internal/events"
	"github.com/fjod/go_cart/product-api/internal/repository"
	"golang.org/x/sync/singleflight"
)

const (
	cacheTimeout   = time.Second
	lookupTimeout  = 5 * time.Second
	publishTimeout = 2 * time.Second
)

type ProductService struct {
	repo      repository.ProductRepository
	cache     cache.ProductCache
	publisher events.Publisher
	logger    *slog.Logger
	sfg       singleflight.Group // Prevents cache stampede

	// generation is bumped by every invalidation. A read that started under
	// an older generation must not leave its result in the cache.
	generation atomic.Uint64
}

func NewProductService(repo repository.ProductRepository, c cache.ProductCache, p events.Publisher, logger *slog.Logger) *ProductService {
	if c == nil {
		c = cache.NopCache{}
	}
	if p == nil {
		p = events.NopPublisher{}
	}
	return &ProductService{
		repo:      repo,
		cache:     c,
		publisher: p,
		logger:    logger,
	}
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		// the lookup is shared by every joined caller, so one client going
		// away must not fail the others
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.lookup(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Product), nil
}

func (s *ProductService) lookup(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.cache.Get(ctx, id)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("cache get failed", "product_id", id, "error", err)
	}

	gen := s.generation.Load()
	product, err = s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.fill(ctx, gen, id, product)
	return product, nil
}

// fill caches a product read under generation gen. If an invalidation lands
// between the check and the write, the entry is removed again.
func (s *ProductService) fill(ctx context.Context, gen uint64, id string, product *domain.Product) {
	if s.generation.Load() != gen {
		return
	}

	setCtx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	if err := s.cache.Set(setCtx, product); err != nil {
		s.logger.Warn("cache set failed", "product_id", id, "error", err)
		return
	}

	if s.generation.Load() != gen {
		if err := s.cache.Delete(setCtx, id); err != nil {
			s.logger.Warn("cache invalidate failed", "product_id", id, "error", err)
		}
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	product, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProductCreated, product)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	product, err := s.repo.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.ProductUpdated, product)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.ProductDeleted, product)
	return product, nil
}

// invalidate drops the cached product. Reads already in flight are detached
// from singleflight so later callers go to the store.
func (s *ProductService) invalidate(ctx context.Context, id string) {
	s.generation.Add(1)
	s.sfg.Forget(id)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("cache invalidate failed", "product_id", id, "error", err)
	}
}

func (s *ProductService) publish(ctx context.Context, eventType events.EventType, product *domain.Product) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.NewProductEvent(eventType, product)); err != nil {
		s.logger.Error("publish product event failed",
			"event_type", eventType,
			"product_id", product.ID.Hex(),
			"error", err)
	}
}
