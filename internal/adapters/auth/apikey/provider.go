// Package apikey provides API key-based authentication for the gateway's
// management API.
package apikey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/pkg/config"
)

// Provider implements ports.AuthProvider using API key authentication.
// Only key hashes live in config; the plaintext key is hashed on arrival
// and looked up.
type Provider struct {
	mu         sync.RWMutex
	keyHashMap map[string]config.APIKeyConfig // keyHash -> key config
}

// NewProvider creates a new API key auth provider from the loaded config.
func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	p := &Provider{
		keyHashMap: make(map[string]config.APIKeyConfig),
	}
	p.loadKeys(cfg)

	return p, nil
}

// Authenticate validates an API key and returns the key context. The KeyID
// is a hash prefix, safe to log.
func (p *Provider) Authenticate(ctx context.Context, token string) (*ports.AuthContext, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keyHash := HashAPIKey(token)

	key, ok := p.keyHashMap[keyHash]
	if !ok {
		return nil, fmt.Errorf("invalid API key")
	}

	return &ports.AuthContext{
		KeyID:       keyID(keyHash),
		Description: key.Description,
	}, nil
}

// ReloadFromConfig reloads keys from new configuration.
// This is called by the gateway when config changes.
func (p *Provider) ReloadFromConfig(cfg *config.Config) {
	p.loadKeys(cfg)
}

func (p *Provider) loadKeys(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keyHashMap = make(map[string]config.APIKeyConfig, len(cfg.Server.APIKeys))
	for _, key := range cfg.Server.APIKeys {
		p.keyHashMap[key.KeyHash] = key
	}
}

// HashAPIKey creates a SHA-256 hash of an API key for storage.
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

func keyID(keyHash string) string {
	if len(keyHash) > 8 {
		return keyHash[:8]
	}
	return keyHash
}
