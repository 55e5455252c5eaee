package domain

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWebhookError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *WebhookError
		expected string
	}{
		{
			name:     "template error",
			err:      &WebhookError{Type: ErrorTypeTemplate, Message: "bad expression"},
			expected: "template_error: bad expression",
		},
		{
			name:     "http error",
			err:      NewHTTPError("wh1", 503, "Service Unavailable"),
			expected: "http_error: HTTP 503: Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWebhookError_Retryable(t *testing.T) {
	tests := []struct {
		name     string
		err      *WebhookError
		expected bool
	}{
		{
			name:     "connection error",
			err:      NewConnectionError("wh1", "connection refused"),
			expected: true,
		},
		{
			name:     "timeout error",
			err:      NewTimeoutError("wh1", "deadline exceeded"),
			expected: true,
		},
		{
			name:     "http 429",
			err:      NewHTTPError("wh1", http.StatusTooManyRequests, "Too Many Requests"),
			expected: true,
		},
		{
			name:     "http 500",
			err:      NewHTTPError("wh1", http.StatusInternalServerError, "Internal Server Error"),
			expected: true,
		},
		{
			name:     "http 503",
			err:      NewHTTPError("wh1", http.StatusServiceUnavailable, "Service Unavailable"),
			expected: true,
		},
		{
			name:     "http 404",
			err:      NewHTTPError("wh1", http.StatusNotFound, "Not Found"),
			expected: false,
		},
		{
			name:     "http 400",
			err:      NewHTTPError("wh1", http.StatusBadRequest, "Bad Request"),
			expected: false,
		},
		{
			name:     "http 401",
			err:      NewHTTPError("wh1", http.StatusUnauthorized, "Unauthorized"),
			expected: false,
		},
		{
			name:     "template error",
			err:      NewTemplateError("wh1", "bad expression"),
			expected: false,
		},
		{
			name:     "not found",
			err:      NewNotFoundError("wh1"),
			expected: false,
		},
		{
			name:     "invalid config",
			err:      NewInvalidConfigError("wh1", "url is required"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Retryable(); got != tt.expected {
				t.Errorf("Retryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWebhookError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *WebhookError
		expected int
	}{
		{
			name:     "invalid request",
			err:      NewInvalidRequestError("bad body"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "invalid config",
			err:      NewInvalidConfigError("wh1", "url is required"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "template error",
			err:      NewTemplateError("wh1", "bad expression"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "authentication error",
			err:      NewAuthenticationError("invalid API key"),
			expected: http.StatusUnauthorized,
		},
		{
			name:     "not found error",
			err:      NewNotFoundError("wh1"),
			expected: http.StatusNotFound,
		},
		{
			name:     "http error",
			err:      NewHTTPError("wh1", 503, "Service Unavailable"),
			expected: http.StatusBadGateway,
		},
		{
			name:     "connection error",
			err:      NewConnectionError("wh1", "refused"),
			expected: http.StatusBadGateway,
		},
		{
			name:     "timeout error",
			err:      NewTimeoutError("wh1", "deadline exceeded"),
			expected: http.StatusGatewayTimeout,
		},
		{
			name:     "server error",
			err:      NewServerError("boom"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "unknown error type",
			err:      &WebhookError{Type: ErrorType("unknown")},
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.HTTPStatusCode(); got != tt.expected {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestNewHTTPError(t *testing.T) {
	err := NewHTTPError("wh1", 503, "Service Unavailable")
	if err.Type != ErrorTypeHTTP {
		t.Errorf("Type = %v, want %v", err.Type, ErrorTypeHTTP)
	}
	if err.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", err.StatusCode)
	}
	if err.WebhookID != "wh1" {
		t.Errorf("WebhookID = %q, want %q", err.WebhookID, "wh1")
	}
	if err.Message != "HTTP 503: Service Unavailable" {
		t.Errorf("Message = %q, want %q", err.Message, "HTTP 503: Service Unavailable")
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("missing")
	if err.Type != ErrorTypeNotFound {
		t.Errorf("Type = %v, want %v", err.Type, ErrorTypeNotFound)
	}
	if err.Message != "webhook missing not found" {
		t.Errorf("Message = %q, want %q", err.Message, "webhook missing not found")
	}
}

func TestAsWebhookError(t *testing.T) {
	werr := NewConnectionError("wh1", "refused")

	got, ok := AsWebhookError(werr)
	if !ok {
		t.Fatal("AsWebhookError() ok = false, want true")
	}
	if got != werr {
		t.Errorf("AsWebhookError() = %v, want %v", got, werr)
	}

	wrapped := fmt.Errorf("send failed: %w", werr)
	got, ok = AsWebhookError(wrapped)
	if !ok {
		t.Fatal("AsWebhookError(wrapped) ok = false, want true")
	}
	if got != werr {
		t.Errorf("AsWebhookError(wrapped) = %v, want %v", got, werr)
	}

	if _, ok := AsWebhookError(fmt.Errorf("plain error")); ok {
		t.Error("AsWebhookError(plain) ok = true, want false")
	}
}
