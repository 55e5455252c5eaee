package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
	"github.com/tjfontaine/webhook-gateway/internal/core/ports"
	"github.com/tjfontaine/webhook-gateway/internal/pkg/config"
)

// Handler implements the management API endpoints.
type Handler struct {
	executor   ports.Executor
	resolver   ports.DefinitionResolver
	store      ports.DefinitionStore
	deliveries ports.DeliveryStore
	defaults   config.DefaultsConfig
	logger     *slog.Logger
}

// HandlerConfig wires the handler's collaborators. Store and Deliveries may
// be nil when no storage is configured; the corresponding endpoints then
// report that editing is unavailable.
type HandlerConfig struct {
	Executor   ports.Executor
	Resolver   ports.DefinitionResolver
	Store      ports.DefinitionStore
	Deliveries ports.DeliveryStore
	Defaults   config.DefaultsConfig
	Logger     *slog.Logger
}

// NewHandler creates the management API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		executor:   cfg.Executor,
		resolver:   cfg.Resolver,
		store:      cfg.Store,
		deliveries: cfg.Deliveries,
		defaults:   cfg.Defaults,
		logger:     logger,
	}
}

// Routes mounts the v1 API.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/", h.ListWebhooks)
		r.Post("/", h.CreateWebhook)
		r.Route("/{webhookID}", func(r chi.Router) {
			r.Get("/", h.GetWebhook)
			r.Put("/", h.PutWebhook)
			r.Delete("/", h.DeleteWebhook)
			r.Post("/execute", h.ExecuteWebhook)
		})
	})
	r.Get("/deliveries", h.ListDeliveries)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type executeResponse struct {
	WebhookID string                 `json:"webhook_id"`
	Response  *domain.ResponseRecord `json:"response"`
}

// ExecuteWebhook triggers one delivery. The optional body carries
// per-call overrides.
func (h *Handler) ExecuteWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhookID")
	AddLogField(r.Context(), "webhook_id", webhookID)

	var overrides *domain.Overrides
	var o domain.Overrides
	err := json.NewDecoder(r.Body).Decode(&o)
	switch {
	case errors.Is(err, io.EOF):
		// Empty body means no overrides.
	case err != nil:
		writeError(w, r, domain.NewInvalidRequestError("invalid overrides: "+err.Error()))
		return
	default:
		overrides = &o
	}

	resp, err := h.executor.Execute(r.Context(), webhookID, overrides)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{
		WebhookID: webhookID,
		Response:  resp,
	})
}

type webhookList struct {
	Webhooks []domain.Definition `json:"webhooks"`
	Count    int                 `json:"count"`
}

// ListWebhooks returns every effective definition, sorted by id.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	defs, err := h.resolver.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]domain.Definition, 0, len(ids))
	for _, id := range ids {
		out = append(out, defs[id])
	}

	writeJSON(w, http.StatusOK, webhookList{Webhooks: out, Count: len(out)})
}

// GetWebhook returns the effective definition for one id.
func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "webhookID")

	def, err := h.resolver.Resolve(r.Context(), webhookID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, def)
}

// CreateWebhook stores a new definition. An omitted webhook_id is
// generated. Creating an id that already has a stored record is rejected;
// use PUT to replace it.
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, r, domain.NewInvalidRequestError("webhook store is not configured"))
		return
	}

	var def domain.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, r, domain.NewInvalidRequestError("invalid definition: "+err.Error()))
		return
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	AddLogField(r.Context(), "webhook_id", def.ID)

	existing, err := h.store.GetDefinition(r.Context(), def.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeError(w, r, domain.NewInvalidRequestError("webhook "+def.ID+" already exists"))
		return
	}

	if err := h.saveDefinition(w, r, &def); err != nil {
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

// PutWebhook inserts or replaces the stored definition for the path id.
// The record replaces whole: a stored definition shadows any declarative
// entry with the same id completely.
func (h *Handler) PutWebhook(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, r, domain.NewInvalidRequestError("webhook store is not configured"))
		return
	}

	webhookID := chi.URLParam(r, "webhookID")
	AddLogField(r.Context(), "webhook_id", webhookID)

	var def domain.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, r, domain.NewInvalidRequestError("invalid definition: "+err.Error()))
		return
	}
	def.ID = webhookID

	if err := h.saveDefinition(w, r, &def); err != nil {
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// saveDefinition normalizes, validates, and persists. On failure the
// response has already been written.
func (h *Handler) saveDefinition(w http.ResponseWriter, r *http.Request, def *domain.Definition) error {
	h.defaults.Apply(def)
	def.Normalize()
	if err := def.Validate(); err != nil {
		writeError(w, r, err)
		return err
	}
	if err := h.store.PutDefinition(r.Context(), def); err != nil {
		writeError(w, r, err)
		return err
	}
	return nil
}

// DeleteWebhook removes the stored definition. When a declarative entry
// with the same id exists it becomes effective again.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, r, domain.NewInvalidRequestError("webhook store is not configured"))
		return
	}

	webhookID := chi.URLParam(r, "webhookID")
	AddLogField(r.Context(), "webhook_id", webhookID)

	existed, err := h.store.DeleteDefinition(r.Context(), webhookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !existed {
		writeError(w, r, domain.NewNotFoundError(webhookID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type deliveryList struct {
	Deliveries []*domain.Delivery `json:"deliveries"`
	Count      int                `json:"count"`
}

// ListDeliveries returns recent delivery history, newest first. Supports
// webhook_id, limit, and offset query parameters.
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	if h.deliveries == nil {
		writeError(w, r, domain.NewInvalidRequestError("delivery history is not configured"))
		return
	}

	opts := ports.DeliveryListOptions{
		WebhookID: r.URL.Query().Get("webhook_id"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}

	deliveries, err := h.deliveries.ListDeliveries(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if deliveries == nil {
		deliveries = []*domain.Delivery{}
	}

	writeJSON(w, http.StatusOK, deliveryList{Deliveries: deliveries, Count: len(deliveries)})
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
