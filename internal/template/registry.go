package template

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// EngineFactory creates a template engine bound to a state provider.
type EngineFactory func(state ports.StateProvider) ports.TemplateEngine

var (
	factoryMu sync.RWMutex
	factories = make(map[string]EngineFactory)
)

func init() {
	RegisterEngine("expr", func(state ports.StateProvider) ports.TemplateEngine {
		return NewExprEngine(state)
	})
	RegisterEngine("passthrough", func(ports.StateProvider) ports.TemplateEngine {
		return passthroughEngine{}
	})
}

// RegisterEngine registers an engine factory under a name. Panics if the
// name is empty or already taken.
func RegisterEngine(name string, f EngineFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if name == "" {
		panic("template engine name cannot be empty")
	}
	if f == nil {
		panic(fmt.Sprintf("template engine %q must have a factory", name))
	}
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("template engine %q already registered", name))
	}
	factories[name] = f
}

// NewEngine instantiates a registered engine by name.
func NewEngine(name string, state ports.StateProvider) (ports.TemplateEngine, error) {
	factoryMu.RLock()
	f, ok := factories[name]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown template engine: %s (registered: %v)", name, EngineNames())
	}
	return f(state), nil
}

// EngineNames returns the registered engine names, sorted.
func EngineNames() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
