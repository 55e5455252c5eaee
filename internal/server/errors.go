package server

import (
	"encoding/json"
	"net/http"

	"github.com/tjfontaine/webhook-gateway/internal/core/domain"
)

// errorEnvelope is the JSON shape of every management API failure.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    domain.ErrorType `json:"type"`
	Message string           `json:"message"`
	// StatusCode is the upstream HTTP status for http_error failures.
	StatusCode int `json:"status_code,omitempty"`
}

// writeError maps the error taxonomy onto HTTP statuses and writes the
// envelope. The error also lands in the request log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	werr, ok := domain.AsWebhookError(err)
	if !ok {
		werr = domain.NewServerError(err.Error())
	}

	writeJSON(w, werr.HTTPStatusCode(), errorEnvelope{
		Error: errorBody{
			Type:       werr.Type,
			Message:    werr.Message,
			StatusCode: werr.StatusCode,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
