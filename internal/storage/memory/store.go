// Package memory provides an in-memory storage provider for tests and
// ephemeral deployments. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// Store is an in-memory implementation of ports.StorageProvider.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]*domain.Definition
	deliveries  []*domain.Delivery
	events      []*domain.DeliveryEvent
}

var _ ports.StorageProvider = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		definitions: make(map[string]*domain.Definition),
	}
}

func (s *Store) GetDefinition(ctx context.Context, id string) (*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, exists := s.definitions[id]
	if !exists {
		return nil, nil
	}

	out := def.Clone()
	return &out, nil
}

func (s *Store) ListDefinitions(ctx context.Context) ([]*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Definition, 0, len(s.definitions))
	for _, def := range s.definitions {
		out := def.Clone()
		result = append(result, &out)
	}

	return result, nil
}

func (s *Store) PutDefinition(ctx context.Context, def *domain.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := def.Clone()
	s.definitions[def.ID] = &stored
	return nil
}

func (s *Store) DeleteDefinition(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.definitions[id]; !exists {
		return false, nil
	}

	delete(s.definitions, id)
	return true, nil
}

func (s *Store) SaveDelivery(ctx context.Context, d *domain.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *d
	s.deliveries = append(s.deliveries, &copied)
	return nil
}

// ListDeliveries returns deliveries newest first.
func (s *Store) ListDeliveries(ctx context.Context, opts ports.DeliveryListOptions) ([]*domain.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Delivery
	for i := len(s.deliveries) - 1; i >= 0; i-- {
		d := s.deliveries[i]
		if opts.WebhookID != "" && d.WebhookID != opts.WebhookID {
			continue
		}
		result = append(result, d)
	}

	// Simple pagination
	start := opts.Offset
	if start >= len(result) {
		return []*domain.Delivery{}, nil
	}

	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) AppendEvent(ctx context.Context, event *domain.DeliveryEvent) error {
	if event == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

// Events returns a snapshot of every appended event, oldest first.
func (s *Store) Events() []*domain.DeliveryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.DeliveryEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) Close() error {
	return nil
}
