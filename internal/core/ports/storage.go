package ports

import (
	"context"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
)

// DefinitionStore is the editable definition source. Records are replaced
// whole; there is no field-level patching. Every mutation is persisted
// before the call returns.
type DefinitionStore interface {
	// GetDefinition returns the stored definition, or (nil, nil) when the
	// store has no record for the id.
	GetDefinition(ctx context.Context, id string) (*domain.Definition, error)

	// ListDefinitions returns all stored definitions.
	ListDefinitions(ctx context.Context) ([]*domain.Definition, error)

	// PutDefinition inserts or replaces the record for def.ID.
	PutDefinition(ctx context.Context, def *domain.Definition) error

	// DeleteDefinition removes the record and reports whether one existed.
	DeleteDefinition(ctx context.Context, id string) (bool, error)
}

// DeliveryStore persists per-execution history records.
type DeliveryStore interface {
	// SaveDelivery appends a terminal delivery record.
	SaveDelivery(ctx context.Context, delivery *domain.Delivery) error

	// ListDeliveries returns recent deliveries, newest first.
	ListDeliveries(ctx context.Context, opts DeliveryListOptions) ([]*domain.Delivery, error)
}

// DeliveryListOptions filters and pages delivery listings.
type DeliveryListOptions struct {
	WebhookID string
	Limit     int
	Offset    int
}

// EventStore persists published delivery events.
type EventStore interface {
	AppendEvent(ctx context.Context, event *domain.DeliveryEvent) error
}

// StorageProvider manages all storage operations.
// Implementations: SQLite (default), PostgreSQL, MySQL, in-memory.
type StorageProvider interface {
	DefinitionStore
	DeliveryStore
	EventStore

	Close() error
}
