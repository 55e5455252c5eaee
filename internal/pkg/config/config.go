// Package config loads gateway configuration from a YAML file overlaid
// with WEBHOOKD_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
)

// DefaultPath is used when no config path is supplied.
const DefaultPath = "config.yaml"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Defaults  DefaultsConfig  `koanf:"defaults"`
	Execution ExecutionConfig `koanf:"execution"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Webhooks  []WebhookConfig `koanf:"webhooks"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// APIKeys protect the gateway's own API. Empty means auth is disabled.
	APIKeys []APIKeyConfig `koanf:"api_keys"`
	// RequestTimeout bounds inbound API requests, e.g. "30s".
	RequestTimeout string `koanf:"request_timeout"`
}

type APIKeyConfig struct {
	KeyHash     string `koanf:"key_hash"`
	Description string `koanf:"description"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, postgres, mysql, memory, none
	SQLite SQLiteConfig `koanf:"sqlite"`
	// Database holds the connection string for postgres and mysql.
	Database DatabaseConfig `koanf:"database"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig configures server-based storage backends.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"` // Data source name / connection string
}

// DefaultsConfig fills omitted fields of declarative webhook definitions.
type DefaultsConfig struct {
	Method           string  `koanf:"method"`
	TimeoutSeconds   float64 `koanf:"timeout_seconds"`
	RetryAttempts    int     `koanf:"retry_attempts"`
	RetryBackoffBase int     `koanf:"retry_backoff_base"`
}

// ExecutionConfig tunes the outbound transport.
type ExecutionConfig struct {
	// MaxResponseBytes caps response bodies. Defaults to 1 MiB.
	MaxResponseBytes int64 `koanf:"max_response_bytes"`
	// AllowPrivateEndpoints permits webhook URLs that resolve to loopback,
	// private, or link-local addresses.
	AllowPrivateEndpoints bool `koanf:"allow_private_endpoints"`
}

type LoggingConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// WebhookConfig is the declarative (file) shape of a webhook definition.
type WebhookConfig struct {
	WebhookID        string            `koanf:"webhook_id"`
	Name             string            `koanf:"name"`
	URL              string            `koanf:"url"`
	Method           string            `koanf:"method"`
	Headers          map[string]string `koanf:"headers"`
	Payload          any               `koanf:"payload"`
	TimeoutSeconds   float64           `koanf:"timeout_seconds"`
	RetryAttempts    int               `koanf:"retry_attempts"`
	RetryBackoffBase int               `koanf:"retry_backoff_base"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the YAML file at path (DefaultPath when empty; a missing file
// is fine), overlays WEBHOOKD_* environment variables, applies defaults,
// and unmarshals. WEBHOOKD_SERVER__PORT=9090 sets server.port.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("WEBHOOKD_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "WEBHOOKD_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("defaults.method") {
		k.Set("defaults.method", domain.DefaultMethod)
	}
	if !k.Exists("defaults.timeout_seconds") {
		k.Set("defaults.timeout_seconds", float64(domain.DefaultTimeoutSeconds))
	}
	if !k.Exists("defaults.retry_attempts") {
		k.Set("defaults.retry_attempts", domain.DefaultRetryAttempts)
	}
	if !k.Exists("defaults.retry_backoff_base") {
		k.Set("defaults.retry_backoff_base", domain.DefaultRetryBackoffBase)
	}
	if !k.Exists("execution.max_response_bytes") {
		k.Set("execution.max_response_bytes", int64(1<<20))
	}
	if !k.Exists("logging.level") {
		k.Set("logging.level", "info")
	}
	if !k.Exists("telemetry.service_name") {
		k.Set("telemetry.service_name", "webhook-gateway")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in webhook URLs and header values,
	// where secrets usually live
	for i := range cfg.Webhooks {
		cfg.Webhooks[i].URL = substituteEnvVars(cfg.Webhooks[i].URL)
		for name, value := range cfg.Webhooks[i].Headers {
			cfg.Webhooks[i].Headers[name] = substituteEnvVars(value)
		}
	}

	return &cfg, nil
}

// Definitions converts the declarative webhook list into validated domain
// definitions keyed by id. Later entries with a duplicate id replace
// earlier ones.
func (c *Config) Definitions() (map[string]domain.Definition, error) {
	out := make(map[string]domain.Definition, len(c.Webhooks))
	for i := range c.Webhooks {
		def, err := c.Webhooks[i].ToDefinition(c.Defaults)
		if err != nil {
			return nil, err
		}
		out[def.ID] = *def
	}
	return out, nil
}

// ToDefinition builds a normalized, validated domain definition, filling
// omitted fields from the configured defaults.
func (w *WebhookConfig) ToDefinition(defaults DefaultsConfig) (*domain.Definition, error) {
	def := &domain.Definition{
		ID:               w.WebhookID,
		Name:             w.Name,
		URL:              w.URL,
		Method:           w.Method,
		Headers:          w.Headers,
		TimeoutSeconds:   w.TimeoutSeconds,
		RetryAttempts:    w.RetryAttempts,
		RetryBackoffBase: w.RetryBackoffBase,
	}
	if w.Payload != nil {
		p, err := domain.PayloadFromAny(w.Payload)
		if err != nil {
			return nil, domain.NewInvalidConfigError(w.WebhookID, fmt.Sprintf("payload: %v", err))
		}
		def.Payload = p
	}
	defaults.Apply(def)
	def.Normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Apply fills omitted definition fields from the configured defaults.
// It is used for declarative webhooks and API-created ones alike, so both
// sources see the same gateway-wide defaults.
func (d DefaultsConfig) Apply(def *domain.Definition) {
	if def.Method == "" {
		def.Method = d.Method
	}
	if def.TimeoutSeconds == 0 {
		def.TimeoutSeconds = d.TimeoutSeconds
	}
	if def.RetryAttempts == 0 {
		def.RetryAttempts = d.RetryAttempts
	}
	if def.RetryBackoffBase == 0 {
		def.RetryBackoffBase = d.RetryBackoffBase
	}
}

// Validate checks cross-field constraints that unmarshaling cannot.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Storage.Type {
	case "", "sqlite", "postgres", "mysql", "memory", "none":
	default:
		return fmt.Errorf("storage.type %q is not supported", c.Storage.Type)
	}
	if c.Execution.MaxResponseBytes < 0 {
		return fmt.Errorf("execution.max_response_bytes must not be negative")
	}
	if _, err := c.Definitions(); err != nil {
		return err
	}
	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
