package runtime

import (
	"fmt"

	"github.com/tjfontaine/webhook-gateway/internal/adapters/storage/sqlite"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/pkg/config"
	"github.com/tjfontaine/webhook-gateway/internal/storage/memory"
	"github.com/tjfontaine/webhook-gateway/internal/storage/sqldb"
)

// buildStorage constructs the storage provider named by the config.
// Returns nil when the config asks for no storage at all.
func buildStorage(cfg *config.Config) (ports.StorageProvider, error) {
	switch cfg.Storage.Type {
	case "none":
		return nil, nil
	case "memory":
		return memory.New(), nil
	case "", "sqlite":
		path := cfg.Storage.SQLite.Path
		if path == "" {
			path = "webhookd.db"
		}
		provider, err := sqlite.NewProvider(path)
		if err != nil {
			return nil, fmt.Errorf("create sqlite storage: %w", err)
		}
		return provider, nil
	case "postgres", "mysql":
		store, err := sqldb.New(sqldb.Config{
			Driver: cfg.Storage.Type,
			DSN:    cfg.Storage.Database.DSN,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s storage: %w", cfg.Storage.Type, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// storageName describes the configured storage backend for startup logs.
func storageName(cfg *config.Config) string {
	switch cfg.Storage.Type {
	case "none":
		return "none"
	case "":
		return "sqlite"
	default:
		return cfg.Storage.Type
	}
}
