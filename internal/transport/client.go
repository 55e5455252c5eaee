// Package transport issues single outbound webhook attempts and normalizes
// the responses. Retries live above this layer; every call here is exactly
// one HTTP exchange.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
)

// DefaultMaxResponseBytes caps response bodies at 1 MiB.
const DefaultMaxResponseBytes int64 = 1 << 20

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxResponseBytes overrides the response body cap.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client sends effective requests over HTTP.
type Client struct {
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger
}

// NewClient creates a transport client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:       http.DefaultClient,
		maxResponseBytes: DefaultMaxResponseBytes,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send issues one HTTP attempt for req and returns the normalized response.
// Failures come back as domain errors: connection_error, timeout_error, or
// http_error for 4xx/5xx statuses. The status is checked before any body
// handling. A response declaring a Content-Length over the cap is rejected
// outright; a body that turns out larger than the cap is truncated to
// exactly the cap with any rune split by the cut dropped, logged as a
// warning rather than an error.
func (c *Client) Send(ctx context.Context, req *domain.EffectiveRequest) (*domain.ResponseRecord, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("sending webhook request",
		"webhook_id", req.WebhookID,
		"method", req.Method,
		"url", req.URL)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classify(req.WebhookID, err)
	}
	defer resp.Body.Close()

	// 4xx/5xx first, before any size handling. The error body is drained
	// (capped) so the connection can be reused, but never parsed.
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxResponseBytes)) //nolint:errcheck
		return nil, domain.NewHTTPError(req.WebhookID, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if resp.ContentLength > c.maxResponseBytes {
		return nil, fmt.Errorf("response size (%d bytes) exceeds maximum allowed (%d bytes)",
			resp.ContentLength, c.maxResponseBytes)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, c.classify(req.WebhookID, err)
	}
	if int64(len(raw)) > c.maxResponseBytes {
		c.logger.Warn("response body exceeds size limit, truncating",
			"webhook_id", req.WebhookID,
			"limit_bytes", c.maxResponseBytes)
		raw = trimPartialRune(raw[:c.maxResponseBytes])
	}

	bodyText := string(raw)
	var parsed any
	if bodyText != "" {
		var v any
		if json.Unmarshal(raw, &v) == nil {
			parsed = v
		}
	}

	return &domain.ResponseRecord{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       bodyText,
		JSON:       parsed,
	}, nil
}

// classify maps low-level transport failures onto the error taxonomy.
// Caller cancellation passes through untouched so the retry loop can tell
// it apart from an attempt deadline.
func (c *Client) classify(webhookID string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeoutError(webhookID, err.Error())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.NewTimeoutError(webhookID, err.Error())
	}
	return domain.NewConnectionError(webhookID, err.Error())
}

// encodeBody builds the request body. Only POST, PUT, and PATCH carry one,
// and only when the payload is non-null: mappings and sequences are sent as
// JSON, everything else as a raw string.
func encodeBody(req *domain.EffectiveRequest) (io.Reader, string, error) {
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil, "", nil
	}
	if req.Payload.IsNull() {
		return nil, "", nil
	}

	switch req.Payload.Kind {
	case domain.PayloadKindMapping, domain.PayloadKindSequence:
		b, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	case domain.PayloadKindString:
		return strings.NewReader(req.Payload.Str), "", nil
	case domain.PayloadKindBool:
		return strings.NewReader(strconv.FormatBool(req.Payload.Bool)), "", nil
	case domain.PayloadKindNumber:
		return strings.NewReader(req.Payload.Number.String()), "", nil
	default:
		return nil, "", nil
	}
}

// trimPartialRune drops the bytes of a rune split by the truncation cut.
// The body was valid UTF-8 before the cut, so at most utf8.UTFMax-1
// trailing bytes go.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[key] = strings.Join(values, ", ")
	}
	return out
}
