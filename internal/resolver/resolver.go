// Package resolver merges the two webhook definition sources, the
// declarative config list and the editable store, into the effective set.
// The store wins whole-record: a stored definition shadows the config
// entry for the same id completely, field by field it is never mixed.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// Resolver implements ports.DefinitionResolver.
type Resolver struct {
	mu          sync.RWMutex
	declarative map[string]domain.Definition

	store ports.DefinitionStore
}

// New creates a resolver over the declarative definitions and an optional
// editable store. A nil store means config-only operation.
func New(declarative map[string]domain.Definition, store ports.DefinitionStore) *Resolver {
	return &Resolver{
		declarative: cloneSet(declarative),
		store:       store,
	}
}

// SetDeclarative atomically replaces the declarative set. Called on config
// reload; in-flight executions keep the definition they already resolved.
func (r *Resolver) SetDeclarative(declarative map[string]domain.Definition) {
	defs := cloneSet(declarative)
	r.mu.Lock()
	r.declarative = defs
	r.mu.Unlock()
}

// Resolve returns the effective definition for id, or a not_found error
// when neither source knows it.
func (r *Resolver) Resolve(ctx context.Context, id string) (*domain.Definition, error) {
	if r.store != nil {
		def, err := r.store.GetDefinition(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read webhook store: %w", err)
		}
		if def != nil {
			return def, nil
		}
	}

	r.mu.RLock()
	def, ok := r.declarative[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.NewNotFoundError(id)
	}
	out := def.Clone()
	return &out, nil
}

// Exists reports whether any source has a definition for id.
func (r *Resolver) Exists(ctx context.Context, id string) (bool, error) {
	if r.store != nil {
		def, err := r.store.GetDefinition(ctx, id)
		if err != nil {
			return false, fmt.Errorf("failed to read webhook store: %w", err)
		}
		if def != nil {
			return true, nil
		}
	}

	r.mu.RLock()
	_, ok := r.declarative[id]
	r.mu.RUnlock()
	return ok, nil
}

// All returns every effective definition keyed by id, with stored records
// shadowing declarative ones.
func (r *Resolver) All(ctx context.Context) (map[string]domain.Definition, error) {
	r.mu.RLock()
	out := cloneSet(r.declarative)
	r.mu.RUnlock()

	if r.store != nil {
		stored, err := r.store.ListDefinitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list webhook store: %w", err)
		}
		for _, def := range stored {
			out[def.ID] = def.Clone()
		}
	}
	return out, nil
}

func cloneSet(defs map[string]domain.Definition) map[string]domain.Definition {
	out := make(map[string]domain.Definition, len(defs))
	for id, def := range defs {
		out[id] = def.Clone()
	}
	return out
}
