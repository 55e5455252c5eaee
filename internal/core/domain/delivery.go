package domain

import "time"

// DeliveryStatus represents the terminal state of one execution.
type DeliveryStatus string

const (
	DeliveryStatusSucceeded DeliveryStatus = "succeeded"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Delivery is the persisted history record for one execution call. It is
// observability data, not a redelivery queue: failed deliveries are never
// re-driven from storage.
type Delivery struct {
	// ID uniquely identifies this delivery.
	ID string `json:"id"`

	// WebhookID is the definition that was executed.
	WebhookID string `json:"webhook_id"`

	// URL is the rendered destination of the final attempt, when known.
	URL string `json:"url,omitempty"`

	// Status is the terminal state.
	Status DeliveryStatus `json:"status"`

	// Attempts is the number of attempts actually made.
	Attempts int `json:"attempts"`

	// StatusCode is the last HTTP status observed, zero when none was.
	StatusCode int `json:"status_code,omitempty"`

	// ErrorType and ErrorMessage describe the terminal failure.
	ErrorType    ErrorType `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	// StartedAt and FinishedAt bound the whole call including backoff.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
