package domain

import "time"

// ResponseRecord is the normalized result of one HTTP attempt that produced
// a response. Body is size-bounded by the transport; JSON holds the parsed
// body when it is valid JSON and is nil otherwise. Immutable after
// construction.
type ResponseRecord struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	JSON       any               `json:"json,omitempty"`
}

// AttemptOutcome records how a single attempt ended. Exactly one of
// Response or Err is set.
type AttemptOutcome struct {
	Attempt  int
	Response *ResponseRecord
	Err      *WebhookError
}

// Success reports whether the attempt produced a usable response.
func (o AttemptOutcome) Success() bool {
	return o.Err == nil && o.Response != nil
}

// EffectiveRequest is the fully merged and rendered request for one
// transport attempt. It lives only for the duration of that attempt.
type EffectiveRequest struct {
	WebhookID string
	URL       string
	Method    string
	Headers   map[string]string
	Payload   *Payload
	Timeout   time.Duration
}

// Overrides carries optional per-call values that supersede the stored
// definition for a single execution. Nil fields mean "not supplied".
type Overrides struct {
	URL            *string           `json:"url,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Payload        *Payload          `json:"payload,omitempty"`
	TimeoutSeconds *float64          `json:"timeout_seconds,omitempty"`
}

// Empty reports whether no override field was supplied.
func (o *Overrides) Empty() bool {
	return o == nil || (o.URL == nil && o.Headers == nil && o.Payload == nil && o.TimeoutSeconds == nil)
}
