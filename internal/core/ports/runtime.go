package ports

import (
	"context"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/pkg/config"
)

// ConfigProvider loads and manages configuration.
// Implementations: file-based (default), static (tests/embedding).
type ConfigProvider interface {
	Load(ctx context.Context) (*config.Config, error)
	Watch(ctx context.Context, onChange func(*config.Config)) error
	Close() error
}

// AuthProvider validates credentials presented to the gateway's own API.
// Implementations: API key (default).
type AuthProvider interface {
	Authenticate(ctx context.Context, token string) (*AuthContext, error)
}

// AuthContext contains authenticated request context.
type AuthContext struct {
	KeyID       string
	Description string
}

// DefinitionResolver supplies effective webhook definitions, merged from
// the declarative config list and the editable store with store-wins
// precedence.
type DefinitionResolver interface {
	// Resolve returns the effective definition or a not_found error.
	Resolve(ctx context.Context, id string) (*domain.Definition, error)

	// Exists reports whether any source knows the identifier.
	Exists(ctx context.Context, id string) (bool, error)

	// All returns every effective definition keyed by id.
	All(ctx context.Context) (map[string]domain.Definition, error)
}

// Executor drives one webhook execution end to end: resolve, build,
// render, send with retries, notify.
type Executor interface {
	Execute(ctx context.Context, webhookID string, overrides *domain.Overrides) (*domain.ResponseRecord, error)
}

// TemplateEngine evaluates a single template string against an environment
// and produces the rendered string. Implementations: expr (default),
// passthrough (tests).
type TemplateEngine interface {
	Render(ctx context.Context, template string, env map[string]any) (string, error)
}

// StateProvider supplies the current system state snapshot that templates
// see as `state`. It is re-read on every render so time-varying values
// stay fresh across retry attempts.
type StateProvider interface {
	State(ctx context.Context) map[string]any
}

// EventPublisher publishes delivery outcome events.
// Implementations: direct storage (default), slog sink.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.DeliveryEvent) error
	Close() error
}
