// Package logger provides an event publisher that emits delivery events as
// structured log records. Useful when no storage is configured or as a tap
// during development.
package logger

import (
	"context"
	"log/slog"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
)

// Publisher implements ports.EventPublisher over slog.
type Publisher struct {
	logger *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher that logs through the given logger.
// A nil logger falls back to slog.Default.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{logger: logger}
}

// Publish logs the event at info level.
func (p *Publisher) Publish(ctx context.Context, event *domain.DeliveryEvent) error {
	p.logger.InfoContext(ctx, "delivery event",
		"event_id", event.ID,
		"event_type", string(event.Type),
		"webhook_id", event.WebhookID,
		"data", event.Data)
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
