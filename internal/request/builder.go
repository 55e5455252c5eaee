// Package request merges a webhook definition with per-call overrides into
// the effective request used for one execution. The merge is pure: no I/O
// and no template rendering happens here.
package request

import (
	"time"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
)

// Build overlays overrides on a definition. Headers are shallow-merged
// with override keys winning; url, payload, and timeout are whole-value
// replacements. A zero-valued url or timeout override falls back to the
// definition, matching the call surface where omitted and empty are
// indistinguishable.
func Build(def *domain.Definition, overrides *domain.Overrides) *domain.EffectiveRequest {
	req := &domain.EffectiveRequest{
		WebhookID: def.ID,
		URL:       def.URL,
		Method:    def.Method,
		Payload:   def.Payload,
		Timeout:   secondsToDuration(def.TimeoutSeconds),
	}

	headers := make(map[string]string, len(def.Headers))
	for k, v := range def.Headers {
		headers[k] = v
	}

	if overrides != nil {
		if overrides.URL != nil && *overrides.URL != "" {
			req.URL = *overrides.URL
		}
		for k, v := range overrides.Headers {
			headers[k] = v
		}
		if overrides.Payload != nil {
			req.Payload = overrides.Payload
		}
		if overrides.TimeoutSeconds != nil && *overrides.TimeoutSeconds != 0 {
			req.Timeout = secondsToDuration(*overrides.TimeoutSeconds)
		}
	}

	req.Headers = headers
	return req
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
