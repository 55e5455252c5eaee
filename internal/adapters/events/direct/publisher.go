// Package direct provides a direct event publisher that writes to storage.
package direct

import (
	"context"
	"fmt"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// Publisher implements ports.EventPublisher by appending delivery events
// directly to storage. This is the default for single-instance deployments.
type Publisher struct {
	store ports.EventStore
}

// NewPublisher creates a new direct event publisher.
func NewPublisher(store ports.EventStore) (*Publisher, error) {
	if store == nil {
		return nil, fmt.Errorf("event store required")
	}

	return &Publisher{
		store: store,
	}, nil
}

// Publish appends a delivery outcome event to storage.
func (p *Publisher) Publish(ctx context.Context, event *domain.DeliveryEvent) error {
	return p.store.AppendEvent(ctx, event)
}

// Close is a no-op for direct publisher.
func (p *Publisher) Close() error {
	return nil
}
