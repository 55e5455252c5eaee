package template

import (
	"context"
	"strings"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// Renderer applies template rendering to the pieces of an effective
// request. Strings without template markers pass through untouched.
type Renderer struct {
	engine ports.TemplateEngine
}

// NewRenderer creates a renderer over the given engine.
func NewRenderer(engine ports.TemplateEngine) *Renderer {
	return &Renderer{engine: engine}
}

// RenderString renders s when it contains template markers and returns it
// unchanged otherwise.
func (r *Renderer) RenderString(ctx context.Context, s string, env map[string]any) (string, error) {
	if !domain.ContainsTemplate(s) {
		return s, nil
	}
	return r.engine.Render(ctx, s, env)
}

// RenderHeaders renders every header value. Keys are never templated.
func (r *Renderer) RenderHeaders(ctx context.Context, headers map[string]string, env map[string]any) (map[string]string, error) {
	if headers == nil {
		return nil, nil
	}
	rendered := make(map[string]string, len(headers))
	for key, value := range headers {
		v, err := r.RenderString(ctx, value, env)
		if err != nil {
			return nil, err
		}
		rendered[key] = v
	}
	return rendered, nil
}

// RenderPayload renders a payload tree recursively. Non-string leaves pass
// through as-is. A string leaf is rendered, and when the result's leading
// non-space character is '{' or '[' it is reparsed as JSON and the parsed
// structure substituted; a failed parse keeps the rendered string.
func (r *Renderer) RenderPayload(ctx context.Context, p *domain.Payload, env map[string]any) (*domain.Payload, error) {
	if p == nil {
		return nil, nil
	}
	switch p.Kind {
	case domain.PayloadKindNull, domain.PayloadKindBool, domain.PayloadKindNumber:
		return p, nil

	case domain.PayloadKindString:
		rendered, err := r.RenderString(ctx, p.Str, env)
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(rendered)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			if parsed, perr := domain.ParsePayload([]byte(rendered)); perr == nil {
				return parsed, nil
			}
		}
		return domain.StringPayload(rendered), nil

	case domain.PayloadKindSequence:
		out := domain.SequencePayload()
		out.Items = make([]*domain.Payload, len(p.Items))
		for i, item := range p.Items {
			node, err := r.RenderPayload(ctx, item, env)
			if err != nil {
				return nil, err
			}
			out.Items[i] = node
		}
		return out, nil

	case domain.PayloadKindMapping:
		out := domain.MappingPayload()
		for _, key := range p.Keys {
			node, err := r.RenderPayload(ctx, p.Fields[key], env)
			if err != nil {
				return nil, err
			}
			out.Set(key, node)
		}
		return out, nil

	default:
		return p, nil
	}
}

// passthroughEngine returns templates verbatim. Useful for embedders that
// want marker-bearing strings treated as literals.
type passthroughEngine struct{}

func (passthroughEngine) Render(_ context.Context, tmpl string, _ map[string]any) (string, error) {
	return tmpl, nil
}
