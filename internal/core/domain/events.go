package domain

import (
	"time"
)

// DeliveryEvent is the terminal outcome signal published for every
// execution, exactly once per call. Events are fire-and-forget: publisher
// failures never reach the caller.
type DeliveryEvent struct {
	ID        string            `json:"id"`
	Type      DeliveryEventType `json:"type"`
	WebhookID string            `json:"webhook_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      any               `json:"data"`
}

// DeliveryEventType identifies the kind of delivery event.
type DeliveryEventType string

const (
	DeliveryEventSucceeded DeliveryEventType = "webhook.delivery.succeeded"
	DeliveryEventFailed    DeliveryEventType = "webhook.delivery.failed"
)

// DeliverySucceededData contains data for webhook.delivery.succeeded events.
type DeliverySucceededData struct {
	WebhookID  string `json:"webhook_id"`
	StatusCode int    `json:"status_code"`
	Attempt    int    `json:"attempt"`
}

// DeliveryFailedData contains data for webhook.delivery.failed events.
// StatusCode is only set when the failure was an http_error.
type DeliveryFailedData struct {
	WebhookID    string    `json:"webhook_id"`
	ErrorType    ErrorType `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	Attempt      int       `json:"attempt"`
	StatusCode   int       `json:"status_code,omitempty"`
}
