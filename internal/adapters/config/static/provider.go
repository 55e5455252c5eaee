// Package static provides a fixed in-memory config provider for embedders
// that assemble configuration programmatically.
package static

import (
	"context"
	"fmt"

	"github.com/tjfontaine/webhook-gateway/internal/pkg/config"
)

// Provider implements ports.ConfigProvider over a config value that never
// changes.
type Provider struct {
	cfg *config.Config
}

// NewProvider creates a static config provider.
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{cfg: cfg}
}

// Load returns the configured value.
func (p *Provider) Load(ctx context.Context) (*config.Config, error) {
	if p.cfg == nil {
		return nil, fmt.Errorf("no config set")
	}
	return p.cfg, nil
}

// Watch is a no-op: static configuration never changes.
func (p *Provider) Watch(ctx context.Context, onChange func(*config.Config)) error {
	return nil
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
