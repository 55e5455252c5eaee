// Package runtime provides the core Gateway struct and lifecycle management
// for the webhook gateway. Gateway can be embedded in larger applications or
// run standalone behind cmd/webhookd.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/webhook-gateway/internal/adapters/auth/apikey"
	"github.com/tjfontaine/webhook-gateway/internal/adapters/events/direct"
	eventlog "github.com/tjfontaine/webhook-gateway/internal/adapters/events/logger"
	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/executor"
	"github.com/tjfontaine/webhook-gateway/internal/pkg/config"
	"github.com/tjfontaine/webhook-gateway/internal/pkg/safehttp"
	"github.com/tjfontaine/webhook-gateway/internal/resolver"
	"github.com/tjfontaine/webhook-gateway/internal/server"
	"github.com/tjfontaine/webhook-gateway/internal/template"
	"github.com/tjfontaine/webhook-gateway/internal/transport"
)

// Gateway is the main entry point for running the webhook gateway.
// It manages configuration, definition resolution, the execution engine,
// and HTTP server lifecycle.
type Gateway struct {
	// Dependencies (injected via options)
	config     ports.ConfigProvider
	auth       ports.AuthProvider
	storage    ports.StorageProvider
	events     ports.EventPublisher
	state      ports.StateProvider
	engine     ports.TemplateEngine
	engineName string
	httpClient *http.Client

	// Internal state, assembled in Start
	resolver *resolver.Resolver
	executor *executor.Executor
	srv      *server.Server
	logger   *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// New creates a new Gateway with the given options.
// By default, uses file-based config, API key auth from config, and the
// storage backend the config names.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{
		logger:     slog.Default(),
		engineName: "expr",
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	// Validate required dependencies
	if gw.config == nil {
		return nil, fmt.Errorf("config provider required (use WithFileConfig or WithConfigProvider)")
	}

	return gw, nil
}

// Start loads configuration, assembles the execution engine, starts the
// HTTP server, and begins watching for config changes.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ctx, g.cancel = context.WithCancel(ctx)

	// Load initial config
	cfg, err := g.config.Load(g.ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := g.initStorage(cfg); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := g.initEngine(cfg); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	if err := g.initAuth(cfg); err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	// Start HTTP server
	if err := g.startServer(cfg); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	// Watch for config changes
	go g.watchConfig()

	g.logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.Int("webhooks", len(cfg.Webhooks)),
		slog.String("storage", storageName(cfg)))

	return nil
}

// Execute runs one webhook delivery directly, without going through the
// HTTP surface. Valid after Start.
func (g *Gateway) Execute(ctx context.Context, webhookID string, overrides *domain.Overrides) (*domain.ResponseRecord, error) {
	g.mu.RLock()
	exec := g.executor
	g.mu.RUnlock()

	if exec == nil {
		return nil, fmt.Errorf("gateway not started")
	}
	return exec.Execute(ctx, webhookID, overrides)
}

// Shutdown gracefully stops the gateway.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	// Stop HTTP server
	if g.srv != nil {
		if err := g.srv.Shutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	// Close resources
	if g.storage != nil {
		if err := g.storage.Close(); err != nil {
			g.logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}

	if g.events != nil {
		if err := g.events.Close(); err != nil {
			g.logger.Error("failed to close events", slog.String("error", err.Error()))
		}
	}

	if g.config != nil {
		if err := g.config.Close(); err != nil {
			g.logger.Error("failed to close config", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway shutdown complete")
	return nil
}

// watchConfig watches for config changes and reloads.
func (g *Gateway) watchConfig() {
	onChange := func(newCfg *config.Config) {
		g.logger.Info("config changed, reloading")
		if err := g.reload(newCfg); err != nil {
			g.logger.Error("failed to reload", slog.String("error", err.Error()))
		}
	}

	if err := g.config.Watch(g.ctx, onChange); err != nil {
		if err != context.Canceled {
			g.logger.Error("config watch failed", slog.String("error", err.Error()))
		}
	}
}

// reload swaps the declarative definition set and auth keys. Storage and
// server settings are fixed at start; in-flight executions keep the
// definitions they already resolved.
func (g *Gateway) reload(cfg *config.Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	defs, err := cfg.Definitions()
	if err != nil {
		return fmt.Errorf("reload definitions: %w", err)
	}
	if g.resolver != nil {
		g.resolver.SetDeclarative(defs)
	}

	if g.auth != nil {
		if reloader, ok := g.auth.(interface{ ReloadFromConfig(*config.Config) }); ok {
			reloader.ReloadFromConfig(cfg)
		}
	}

	g.logger.Info("reload complete", slog.Int("webhooks", len(defs)))
	return nil
}

// initStorage builds the storage provider named by config unless an option
// already supplied one.
func (g *Gateway) initStorage(cfg *config.Config) error {
	if g.storage != nil {
		return nil
	}

	store, err := buildStorage(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		g.logger.Info("no storage configured, running config-only without delivery history")
	}
	g.storage = store
	return nil
}

// initEngine assembles resolver, renderer, transport, and executor.
func (g *Gateway) initEngine(cfg *config.Config) error {
	defs, err := cfg.Definitions()
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}

	var defStore ports.DefinitionStore
	var delStore ports.DeliveryStore
	if g.storage != nil {
		defStore = g.storage
		delStore = g.storage
	}

	g.resolver = resolver.New(defs, defStore)

	if g.engine == nil {
		engine, err := template.NewEngine(g.engineName, g.state)
		if err != nil {
			return fmt.Errorf("create template engine: %w", err)
		}
		g.engine = engine
	}
	renderer := template.NewRenderer(g.engine)

	if g.events == nil {
		if g.storage != nil {
			g.logger.Info("no event publisher specified, using direct storage")
			publisher, err := direct.NewPublisher(g.storage)
			if err != nil {
				return fmt.Errorf("create default event publisher: %w", err)
			}
			g.events = publisher
		} else {
			g.logger.Info("no event publisher specified, logging delivery events")
			g.events = eventlog.NewPublisher(g.logger)
		}
	}

	if g.httpClient == nil {
		base := http.RoundTripper(safehttp.NewTransport(cfg.Execution.AllowPrivateEndpoints))
		if cfg.Telemetry.Enabled {
			base = otelhttp.NewTransport(base)
		}
		g.httpClient = &http.Client{Transport: base}
	}

	sender := transport.NewClient(
		transport.WithHTTPClient(g.httpClient),
		transport.WithMaxResponseBytes(cfg.Execution.MaxResponseBytes),
		transport.WithLogger(g.logger),
	)

	g.executor = executor.New(g.resolver, renderer, sender,
		executor.WithEventPublisher(g.events),
		executor.WithDeliveryStore(delStore),
		executor.WithLogger(g.logger),
	)

	return nil
}

// initAuth builds API key auth from config unless an option supplied a
// provider. No configured keys means the management API runs open.
func (g *Gateway) initAuth(cfg *config.Config) error {
	if g.auth != nil {
		return nil
	}
	if len(cfg.Server.APIKeys) == 0 {
		g.logger.Info("no API keys configured, management API runs unauthenticated")
		return nil
	}

	provider, err := apikey.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("create apikey auth provider: %w", err)
	}
	g.auth = provider
	return nil
}

// startServer starts the HTTP server.
func (g *Gateway) startServer(cfg *config.Config) error {
	var defStore ports.DefinitionStore
	var delStore ports.DeliveryStore
	if g.storage != nil {
		defStore = g.storage
		delStore = g.storage
	}

	handler := server.NewHandler(server.HandlerConfig{
		Executor:   g.executor,
		Resolver:   g.resolver,
		Store:      defStore,
		Deliveries: delStore,
		Defaults:   cfg.Defaults,
		Logger:     g.logger,
	})

	g.srv = server.New(cfg.Server.Port, g.logger, g.auth, requestTimeout(cfg, g.logger), handler)

	// Start server in background
	go func() {
		if err := g.srv.Start(); err != nil {
			g.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

func requestTimeout(cfg *config.Config, logger *slog.Logger) time.Duration {
	const fallback = 30 * time.Second
	raw := cfg.Server.RequestTimeout
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("invalid server.request_timeout, using default",
			slog.String("value", raw),
			slog.Duration("default", fallback))
		return fallback
	}
	return d
}
