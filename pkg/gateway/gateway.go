// Package gateway provides the public API for embedding the webhook gateway.
// This is the stable API for external consumers.
package gateway

import (
	"github.com/tjfontaine/webhook-gateway/internal/runtime"
)

// Gateway is the main entry point for running the webhook gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithFileConfig("config.yaml"),
//	    gateway.WithSQLite("./data/webhookd.db"),
//	)
var New = runtime.New

// Configuration options
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Storage
	WithSQLite          = runtime.WithSQLite
	WithPostgres        = runtime.WithPostgres
	WithMySQL           = runtime.WithMySQL
	WithMemoryStorage   = runtime.WithMemoryStorage
	WithStorageProvider = runtime.WithStorageProvider

	// Events
	WithDirectEvents   = runtime.WithDirectEvents
	WithEventPublisher = runtime.WithEventPublisher

	// Templates
	WithStateProvider  = runtime.WithStateProvider
	WithTemplateEngine = runtime.WithTemplateEngine

	// Advanced options
	WithLogger       = runtime.WithLogger
	WithAuthProvider = runtime.WithAuthProvider
	WithHTTPClient   = runtime.WithHTTPClient
)
