// Package executor drives webhook executions end to end: resolve the
// definition, merge call overrides, render templates, send with retries,
// and publish the terminal outcome.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/request"
	"github.com/tjfontaine/webhook-gateway/internal/template"
)

// Sender issues a single HTTP attempt.
type Sender interface {
	Send(ctx context.Context, req *domain.EffectiveRequest) (*domain.ResponseRecord, error)
}

// Option configures the executor.
type Option func(*Executor)

// WithEventPublisher sets the sink for delivery outcome events.
func WithEventPublisher(events ports.EventPublisher) Option {
	return func(e *Executor) {
		e.events = events
	}
}

// WithDeliveryStore enables persistence of per-execution history records.
func WithDeliveryStore(deliveries ports.DeliveryStore) Option {
	return func(e *Executor) {
		e.deliveries = deliveries
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// Executor implements ports.Executor.
type Executor struct {
	resolver   ports.DefinitionResolver
	renderer   *template.Renderer
	sender     Sender
	events     ports.EventPublisher
	deliveries ports.DeliveryStore
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates an executor over the given resolver, renderer, and sender.
func New(resolver ports.DefinitionResolver, renderer *template.Renderer, sender Sender, opts ...Option) *Executor {
	e := &Executor{
		resolver: resolver,
		renderer: renderer,
		sender:   sender,
		logger:   slog.Default(),
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one webhook call. Overrides may be nil. Exactly one outcome
// event is published per call; exactly one delivery record is saved.
//
// Templates are rendered fresh on every attempt, so retried calls see
// current state. The attempt number reported on events is 1-based for
// completed attempts; a template failure reports the number of attempts
// that actually went out, which is zero when the first render fails.
func (e *Executor) Execute(ctx context.Context, webhookID string, overrides *domain.Overrides) (*domain.ResponseRecord, error) {
	def, err := e.resolver.Resolve(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	eff := request.Build(def, overrides)
	started := e.now().UTC()
	attempts := def.RetryAttempts

	var lastErr *domain.WebhookError
	for attempt := 1; attempt <= attempts; attempt++ {
		rendered, err := e.renderAttempt(ctx, def, eff, attempt)
		if err != nil {
			werr := domain.NewTemplateError(def.ID, err.Error())
			e.logger.Warn("webhook template rendering failed",
				"webhook_id", def.ID,
				"error", err)
			e.publishFailure(ctx, def.ID, werr, attempt-1, false)
			e.saveDelivery(ctx, def.ID, eff.URL, started, attempt-1, nil, werr)
			return nil, werr
		}

		resp, err := e.sender.Send(ctx, rendered)
		// Caller cancellation propagates untouched, without an event.
		if err != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}

		outcome := classifyAttempt(def.ID, attempt, resp, err)
		if outcome.Success() {
			e.logger.Info("webhook delivered",
				"webhook_id", def.ID,
				"status_code", outcome.Response.StatusCode,
				"attempt", outcome.Attempt)
			e.publishSuccess(ctx, def.ID, outcome.Response.StatusCode, outcome.Attempt)
			e.saveDelivery(ctx, def.ID, rendered.URL, started, outcome.Attempt, outcome.Response, nil)
			return outcome.Response, nil
		}
		lastErr = outcome.Err

		if !outcome.Err.Retryable() {
			e.logger.Warn("webhook delivery failed",
				"webhook_id", def.ID,
				"error_type", outcome.Err.Type,
				"status_code", outcome.Err.StatusCode,
				"attempt", outcome.Attempt)
			e.publishFailure(ctx, def.ID, outcome.Err, outcome.Attempt, true)
			e.saveDelivery(ctx, def.ID, rendered.URL, started, outcome.Attempt, nil, outcome.Err)
			return nil, outcome.Err
		}

		if attempt < attempts {
			delay := backoffDelay(def.RetryBackoffBase, attempt)
			e.logger.Debug("retrying webhook delivery",
				"webhook_id", def.ID,
				"attempt", attempt,
				"delay", delay.String(),
				"error", outcome.Err.Message)
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}

	e.logger.Warn("webhook delivery exhausted retries",
		"webhook_id", def.ID,
		"attempts", attempts,
		"error_type", lastErr.Type)
	// The exhaustion event reports the last error but never a status code.
	e.publishFailure(ctx, def.ID, lastErr, attempts, false)
	final := &domain.WebhookError{
		Type:       lastErr.Type,
		Message:    fmt.Sprintf("webhook %s failed after %d attempts: %s", webhookID, attempts, lastErr.Message),
		WebhookID:  webhookID,
		StatusCode: lastErr.StatusCode,
	}
	e.saveDelivery(ctx, def.ID, eff.URL, started, attempts, nil, final)
	return nil, final
}

// classifyAttempt folds one send result into an AttemptOutcome. Errors the
// transport did not already classify count as connection failures.
func classifyAttempt(webhookID string, attempt int, resp *domain.ResponseRecord, err error) domain.AttemptOutcome {
	outcome := domain.AttemptOutcome{Attempt: attempt}
	if err == nil {
		outcome.Response = resp
		return outcome
	}
	if werr, ok := domain.AsWebhookError(err); ok {
		outcome.Err = werr
	} else {
		outcome.Err = domain.NewConnectionError(webhookID, err.Error())
	}
	return outcome
}

// renderAttempt renders the URL, headers, and payload for one attempt.
// The webhook identity and current attempt number are exposed to templates
// under `webhook`.
func (e *Executor) renderAttempt(ctx context.Context, def *domain.Definition, eff *domain.EffectiveRequest, attempt int) (*domain.EffectiveRequest, error) {
	scope := map[string]any{
		"webhook": map[string]any{
			"id":      def.ID,
			"name":    def.Name,
			"attempt": attempt,
		},
	}

	url, err := e.renderer.RenderString(ctx, eff.URL, scope)
	if err != nil {
		return nil, err
	}
	headers, err := e.renderer.RenderHeaders(ctx, eff.Headers, scope)
	if err != nil {
		return nil, err
	}
	payload, err := e.renderer.RenderPayload(ctx, eff.Payload, scope)
	if err != nil {
		return nil, err
	}

	return &domain.EffectiveRequest{
		WebhookID: eff.WebhookID,
		URL:       url,
		Method:    eff.Method,
		Headers:   headers,
		Payload:   payload,
		Timeout:   eff.Timeout,
	}, nil
}

func (e *Executor) publishSuccess(ctx context.Context, webhookID string, statusCode, attempt int) {
	e.publish(ctx, &domain.DeliveryEvent{
		ID:        uuid.NewString(),
		Type:      domain.DeliveryEventSucceeded,
		WebhookID: webhookID,
		Timestamp: e.now().UTC(),
		Data: domain.DeliverySucceededData{
			WebhookID:  webhookID,
			StatusCode: statusCode,
			Attempt:    attempt,
		},
	})
}

func (e *Executor) publishFailure(ctx context.Context, webhookID string, werr *domain.WebhookError, attempt int, includeStatus bool) {
	data := domain.DeliveryFailedData{
		WebhookID:    webhookID,
		ErrorType:    werr.Type,
		ErrorMessage: werr.Message,
		Attempt:      attempt,
	}
	if includeStatus {
		data.StatusCode = werr.StatusCode
	}
	e.publish(ctx, &domain.DeliveryEvent{
		ID:        uuid.NewString(),
		Type:      domain.DeliveryEventFailed,
		WebhookID: webhookID,
		Timestamp: e.now().UTC(),
		Data:      data,
	})
}

// publish is fire-and-forget: sink failures are logged and swallowed so
// they can never change the outcome of the call.
func (e *Executor) publish(ctx context.Context, event *domain.DeliveryEvent) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, event); err != nil {
		e.logger.Error("failed to publish delivery event",
			"event_type", event.Type,
			"webhook_id", event.WebhookID,
			"error", err)
	}
}

func (e *Executor) saveDelivery(ctx context.Context, webhookID, url string, started time.Time, attempts int, resp *domain.ResponseRecord, werr *domain.WebhookError) {
	if e.deliveries == nil {
		return
	}
	d := &domain.Delivery{
		ID:         uuid.NewString(),
		WebhookID:  webhookID,
		URL:        url,
		Attempts:   attempts,
		StartedAt:  started,
		FinishedAt: e.now().UTC(),
	}
	if resp != nil {
		d.Status = domain.DeliveryStatusSucceeded
		d.StatusCode = resp.StatusCode
	} else {
		d.Status = domain.DeliveryStatusFailed
		d.ErrorType = werr.Type
		d.ErrorMessage = werr.Message
		d.StatusCode = werr.StatusCode
	}
	if err := e.deliveries.SaveDelivery(ctx, d); err != nil {
		e.logger.Error("failed to record delivery",
			"webhook_id", webhookID,
			"error", err)
	}
}

// backoffDelay computes the wait after a failed attempt: base**(attempt-1)
// seconds, so the first retry waits one second regardless of base.
func backoffDelay(base, attempt int) time.Duration {
	d := time.Second
	for i := 1; i < attempt; i++ {
		d *= time.Duration(base)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
