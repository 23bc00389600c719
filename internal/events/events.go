package events

import (
	"context"
	"time"

	"github.com/fjod/go_cart/product-api/internal/domain"
	"github.com/google/uuid"
)

type EventType string

const (
	ProductCreated EventType = "product.created"
	ProductUpdated EventType = "product.updated"
	ProductDeleted EventType = "product.deleted"
)

// ProductEvent is the payload published after a product changes state.
type ProductEvent struct {
	EventID    string          `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	ProductID  string          `json:"product_id"`
	Product    *domain.Product `json:"product"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewProductEvent(eventType EventType, product *domain.Product) ProductEvent {
	return ProductEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		ProductID:  product.ID.Hex(),
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event ProductEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ProductEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }
