package runtime

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tjfontaine/webhook-gateway/internal/adapters/config/file"
	"github.com/tjfontaine/webhook-gateway/internal/adapters/events/direct"
	"github.com/tjfontaine/webhook-gateway/internal/adapters/storage/sqlite"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/storage/memory"
	"github.com/tjfontaine/webhook-gateway/internal/storage/sqldb"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithFileConfig uses file-based configuration with hot-reload (default).
// The path should point to a config.yaml file that will be watched for changes.
func WithFileConfig(path string) Option {
	return func(g *Gateway) error {
		provider, err := file.NewProvider(path)
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		g.config = provider
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
// For advanced use cases where you need full control over config loading.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(g *Gateway) error {
		g.config = provider
		return nil
	}
}

// WithSQLite uses SQLite storage, overriding whatever the config file names.
func WithSQLite(path string) Option {
	return func(g *Gateway) error {
		store, err := sqlite.NewProvider(path)
		if err != nil {
			return fmt.Errorf("create sqlite storage: %w", err)
		}
		g.storage = store
		return nil
	}
}

// WithPostgres uses PostgreSQL storage via the pgx driver.
// Recommended for distributed deployments.
func WithPostgres(dsn string) Option {
	return func(g *Gateway) error {
		store, err := sqldb.New(sqldb.Config{Driver: "pgx", DSN: dsn})
		if err != nil {
			return fmt.Errorf("create postgres storage: %w", err)
		}
		g.storage = store
		return nil
	}
}

// WithMySQL uses MySQL storage.
func WithMySQL(dsn string) Option {
	return func(g *Gateway) error {
		store, err := sqldb.New(sqldb.Config{Driver: "mysql", DSN: dsn})
		if err != nil {
			return fmt.Errorf("create mysql storage: %w", err)
		}
		g.storage = store
		return nil
	}
}

// WithMemoryStorage keeps definitions, deliveries, and events in process
// memory. Useful for tests and embedded single-process setups.
func WithMemoryStorage() Option {
	return func(g *Gateway) error {
		g.storage = memory.New()
		return nil
	}
}

// WithStorageProvider sets a custom storage provider.
func WithStorageProvider(provider ports.StorageProvider) Option {
	return func(g *Gateway) error {
		g.storage = provider
		return nil
	}
}

// WithDirectEvents writes delivery events directly to storage (default when
// storage is configured). No separate event bus, events are written
// synchronously to storage.
func WithDirectEvents() Option {
	return func(g *Gateway) error {
		if g.storage == nil {
			return fmt.Errorf("storage provider must be set before event publisher")
		}
		publisher, err := direct.NewPublisher(g.storage)
		if err != nil {
			return fmt.Errorf("create direct event publisher: %w", err)
		}
		g.events = publisher
		return nil
	}
}

// WithEventPublisher sets a custom event publisher.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(g *Gateway) error {
		g.events = publisher
		return nil
	}
}

// WithAuthProvider sets a custom auth provider.
func WithAuthProvider(provider ports.AuthProvider) Option {
	return func(g *Gateway) error {
		g.auth = provider
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithStateProvider exposes host application state to template expressions.
func WithStateProvider(state ports.StateProvider) Option {
	return func(g *Gateway) error {
		g.state = state
		return nil
	}
}

// WithTemplateEngine selects a registered template engine by name.
// The default is "expr".
func WithTemplateEngine(name string) Option {
	return func(g *Gateway) error {
		g.engineName = name
		return nil
	}
}

// WithHTTPClient uses a custom HTTP client for outbound deliveries,
// replacing the built-in private-endpoint guard and telemetry transport.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) error {
		g.httpClient = client
		return nil
	}
}
