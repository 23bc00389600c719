package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/product-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository implements ProductRepository with in-memory storage.
// It enforces the same id format and required fields as the MongoDB store.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]domain.Product
}

// NewMemoryRepository creates an empty in-memory product store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[primitive.ObjectID]domain.Product),
	}
}

func (s *MemoryRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Product, 0, len(s.products))
	for _, p := range s.products {
		p := p
		result = append(result, &p)
	}
	return result, nil
}

func (s *MemoryRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.products[oid]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryRepository) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if !in.HasRequired() {
		return nil, fmt.Errorf("failed to create product: %w", ErrMissingField)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	p := domain.Product{ID: primitive.NewObjectID()}
	in.Apply(&p)

	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()

	return &p, nil
}

func (s *MemoryRepository) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[oid]
	if !exists {
		return nil, ErrProductNotFound
	}
	if !in.HasRequired() {
		return nil, fmt.Errorf("failed to update product: %w", ErrMissingField)
	}

	in.Apply(&p)
	s.products[oid] = p
	return &p, nil
}

func (s *MemoryRepository) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[oid]
	if !exists {
		return nil, ErrProductNotFound
	}
	delete(s.products, oid)
	return &p, nil
}
