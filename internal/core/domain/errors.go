package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a webhook execution or API error.
type ErrorType string

const (
	// ErrorTypeTemplate indicates a malformed template or a failed
	// evaluation. Never retried.
	ErrorTypeTemplate ErrorType = "template_error"

	// ErrorTypeConnection indicates the endpoint could not be reached
	// (DNS, refused, reset). Retryable.
	ErrorTypeConnection ErrorType = "connection_error"

	// ErrorTypeTimeout indicates the attempt exceeded its deadline.
	// Retryable.
	ErrorTypeTimeout ErrorType = "timeout_error"

	// ErrorTypeHTTP indicates the remote end answered with 4xx/5xx.
	// Retryable only for 429 and 5xx.
	ErrorTypeHTTP ErrorType = "http_error"

	// ErrorTypeNotFound indicates an unknown webhook identifier.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeInvalidConfig indicates a definition that failed validation.
	ErrorTypeInvalidConfig ErrorType = "invalid_config"

	// ErrorTypeInvalidRequest indicates a malformed API request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates an API authentication failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeServer indicates an internal gateway failure.
	ErrorTypeServer ErrorType = "server_error"
)

// WebhookError is the canonical error carried through the execution engine
// and translated by the API layer.
type WebhookError struct {
	// Type is the category of error.
	Type ErrorType `json:"type"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// WebhookID identifies the webhook involved, when known.
	WebhookID string `json:"webhook_id,omitempty"`

	// StatusCode is the remote HTTP status for http_error values.
	StatusCode int `json:"status_code,omitempty"`
}

// Error implements the error interface.
func (e *WebhookError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Retryable reports whether another attempt may succeed.
func (e *WebhookError) Retryable() bool {
	switch e.Type {
	case ErrorTypeConnection, ErrorTypeTimeout:
		return true
	case ErrorTypeHTTP:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

// HTTPStatusCode returns the status the gateway's own API should answer
// with when this error terminates a call.
func (e *WebhookError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest, ErrorTypeInvalidConfig, ErrorTypeTemplate:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeHTTP, ErrorTypeConnection:
		return http.StatusBadGateway
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WithWebhookID tags the error with the webhook it belongs to.
func (e *WebhookError) WithWebhookID(id string) *WebhookError {
	e.WebhookID = id
	return e
}

// NewWebhookError creates a new webhook error.
func NewWebhookError(errType ErrorType, message string) *WebhookError {
	return &WebhookError{Type: errType, Message: message}
}

// NewTemplateError creates a template evaluation error.
func NewTemplateError(webhookID, message string) *WebhookError {
	return NewWebhookError(ErrorTypeTemplate, message).WithWebhookID(webhookID)
}

// NewConnectionError creates a transport reachability error.
func NewConnectionError(webhookID, message string) *WebhookError {
	return NewWebhookError(ErrorTypeConnection, message).WithWebhookID(webhookID)
}

// NewTimeoutError creates an attempt deadline error.
func NewTimeoutError(webhookID, message string) *WebhookError {
	return NewWebhookError(ErrorTypeTimeout, message).WithWebhookID(webhookID)
}

// NewHTTPError creates a remote-status error. The message mirrors the
// status line, e.g. "HTTP 503: Service Unavailable".
func NewHTTPError(webhookID string, status int, statusText string) *WebhookError {
	e := NewWebhookError(ErrorTypeHTTP, fmt.Sprintf("HTTP %d: %s", status, statusText))
	e.StatusCode = status
	return e.WithWebhookID(webhookID)
}

// NewNotFoundError creates an unknown-webhook error.
func NewNotFoundError(webhookID string) *WebhookError {
	return NewWebhookError(ErrorTypeNotFound, fmt.Sprintf("webhook %s not found", webhookID)).
		WithWebhookID(webhookID)
}

// NewInvalidConfigError creates a definition validation error.
func NewInvalidConfigError(webhookID, message string) *WebhookError {
	return NewWebhookError(ErrorTypeInvalidConfig, message).WithWebhookID(webhookID)
}

// NewInvalidRequestError creates a malformed API request error.
func NewInvalidRequestError(message string) *WebhookError {
	return NewWebhookError(ErrorTypeInvalidRequest, message)
}

// NewAuthenticationError creates an API authentication error.
func NewAuthenticationError(message string) *WebhookError {
	return NewWebhookError(ErrorTypeAuthentication, message)
}

// NewServerError creates an internal gateway error.
func NewServerError(message string) *WebhookError {
	return NewWebhookError(ErrorTypeServer, message)
}

// AsWebhookError unwraps err into a *WebhookError when one is present.
func AsWebhookError(err error) (*WebhookError, bool) {
	var we *WebhookError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}
