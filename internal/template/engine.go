// Package template renders webhook definitions: single strings, header
// maps, and recursive payload trees. Rendering is driven by a pluggable
// engine; the default engine evaluates {{ <expression> }} spans with
// expr-lang against the current system state.
package template

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// ExprEngine evaluates {{ <expression> }} spans with expr-lang/expr.
// Compiled programs are cached by expression string. Each evaluation sees:
//
//	state    snapshot from the StateProvider, re-read per render
//	env      process environment variables
//	now      render time in UTC
//	webhook  id/name of the definition being rendered (from the caller)
//
// Block syntax ({% ... %}) is recognized as template markup but not
// supported; rendering such a string fails.
type ExprEngine struct {
	state ports.StateProvider
	nowFn func() time.Time

	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEngine creates an engine. state may be nil, in which case
// templates see an empty state map.
func NewExprEngine(state ports.StateProvider) *ExprEngine {
	return &ExprEngine{
		state: state,
		nowFn: time.Now,
		cache: make(map[string]*vm.Program),
	}
}

// Render implements ports.TemplateEngine.
func (e *ExprEngine) Render(ctx context.Context, tmpl string, env map[string]any) (string, error) {
	if strings.Contains(tmpl, "{%") {
		return "", fmt.Errorf("template blocks {%% ... %%} are not supported, use {{ <expression> }}")
	}

	scope := e.buildScope(ctx, env)

	var sb strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end < 0 {
			return "", fmt.Errorf("unterminated {{ in template")
		}
		src := strings.TrimSpace(rest[:end])
		rest = rest[end+2:]

		if src == "" {
			return "", fmt.Errorf("empty template expression")
		}
		val, err := e.eval(src, scope)
		if err != nil {
			return "", err
		}
		s, err := stringify(val)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func (e *ExprEngine) buildScope(ctx context.Context, env map[string]any) map[string]any {
	scope := make(map[string]any, len(env)+3)
	for k, v := range env {
		scope[k] = v
	}
	if _, ok := scope["env"]; !ok {
		scope["env"] = processEnv()
	}
	if _, ok := scope["now"]; !ok {
		scope["now"] = e.nowFn().UTC()
	}
	if _, ok := scope["state"]; !ok {
		if e.state != nil {
			scope["state"] = e.state.State(ctx)
		} else {
			scope["state"] = map[string]any{}
		}
	}
	return scope
}

func (e *ExprEngine) eval(src string, scope map[string]any) (any, error) {
	e.mu.RLock()
	prog, ok := e.cache[src]
	e.mu.RUnlock()

	if !ok {
		var err error
		prog, err = expr.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compile template expression %q: %w", src, err)
		}
		e.mu.Lock()
		e.cache[src] = prog
		e.mu.Unlock()
	}

	out, err := expr.Run(prog, scope)
	if err != nil {
		return nil, fmt.Errorf("evaluate template expression %q: %w", src, err)
	}
	return out, nil
}

func processEnv() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}
	return vars
}

// stringify converts an evaluated expression result into the rendered text.
// Scalars format plainly; composite values are JSON-encoded so rendered
// payload strings can be reinterpreted as structures downstream.
func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case time.Duration:
		return t.String(), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("render result of type %T: %w", v, err)
		}
		return string(b), nil
	}
}
