// Package domain provides the core data model for the webhook gateway:
// webhook definitions, the JSON-like payload tree, normalized responses,
// delivery records, and the canonical error taxonomy.
package domain

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Defaults applied to definitions that omit optional fields.
const (
	DefaultMethod           = http.MethodPost
	DefaultTimeoutSeconds   = 10
	DefaultRetryAttempts    = 3
	DefaultRetryBackoffBase = 2
)

// Methods is the set of HTTP methods a definition may use.
var Methods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Definition describes a single named outbound webhook. The url and every
// header value, plus every string leaf of the payload, may be a template
// string rendered at call time.
type Definition struct {
	// ID uniquely identifies the webhook. Immutable once created.
	ID string `json:"webhook_id"`

	// Name is the human-readable label for the webhook.
	Name string `json:"name"`

	// URL is the destination, possibly templated.
	URL string `json:"url"`

	// Method is the HTTP method, one of Methods. Defaults to POST.
	Method string `json:"method"`

	// Headers maps header names to (possibly templated) values.
	Headers map[string]string `json:"headers,omitempty"`

	// Payload is the optional request body tree. Nil means no body.
	Payload *Payload `json:"payload,omitempty"`

	// TimeoutSeconds bounds each individual attempt. Defaults to 10.
	TimeoutSeconds float64 `json:"timeout_seconds"`

	// RetryAttempts is the total attempt budget (>= 1). Defaults to 3.
	RetryAttempts int `json:"retry_attempts"`

	// RetryBackoffBase is the base of the exponential wait between
	// attempts, in seconds. Defaults to 2.
	RetryBackoffBase int `json:"retry_backoff_base"`
}

// Normalize fills zero-valued optional fields with their defaults and
// upper-cases the method.
func (d *Definition) Normalize() {
	d.Method = strings.ToUpper(strings.TrimSpace(d.Method))
	if d.Method == "" {
		d.Method = DefaultMethod
	}
	if d.TimeoutSeconds == 0 {
		d.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if d.RetryAttempts == 0 {
		d.RetryAttempts = DefaultRetryAttempts
	}
	if d.RetryBackoffBase == 0 {
		d.RetryBackoffBase = DefaultRetryBackoffBase
	}
}

// Validate checks a normalized definition. Templated URLs are only checked
// for shape when they contain no template markers, since the final value is
// not known until render time.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return NewInvalidConfigError("", "webhook_id is required")
	}
	if d.Name == "" {
		return NewInvalidConfigError(d.ID, "name is required")
	}
	if d.URL == "" {
		return NewInvalidConfigError(d.ID, "url is required")
	}
	if !ContainsTemplate(d.URL) {
		if err := ValidateURL(d.URL); err != nil {
			return NewInvalidConfigError(d.ID, err.Error())
		}
	}
	if !Methods[d.Method] {
		return NewInvalidConfigError(d.ID, fmt.Sprintf("method %q is not supported", d.Method))
	}
	if d.TimeoutSeconds <= 0 {
		return NewInvalidConfigError(d.ID, "timeout_seconds must be positive")
	}
	if d.RetryAttempts < 1 {
		return NewInvalidConfigError(d.ID, "retry_attempts must be at least 1")
	}
	if d.RetryBackoffBase < 1 {
		return NewInvalidConfigError(d.ID, "retry_backoff_base must be at least 1")
	}
	return nil
}

// Clone returns a deep copy so callers can hand definitions across
// goroutines without sharing the headers map or payload tree.
func (d Definition) Clone() Definition {
	out := d
	if d.Headers != nil {
		out.Headers = make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			out.Headers[k] = v
		}
	}
	if d.Payload != nil {
		out.Payload = d.Payload.Clone()
	}
	return out
}

// ValidateURL checks that a rendered (non-template) URL is absolute http(s).
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url is missing a host")
	}
	return nil
}

// ContainsTemplate reports whether a string carries template markers. Any
// string containing either marker is treated as a template; a literal that
// happens to contain them cannot be distinguished.
func ContainsTemplate(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}
