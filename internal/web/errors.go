package web

// errors.go centralizes JSON response plumbing. Client-facing failure
// bodies are {"message": ...}; technical details stay in the server log,
// keyed by request id.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ledgerkeep/ledgerkeep/internal/logging"
)

type messageResponse struct {
	Message string `json:"message"`
}

// respondError writes a JSON error body and logs the failure with the
// request context.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"message", message,
	)
	writeJSON(w, status, messageResponse{Message: message})
}

// respondInternal hides the underlying error from the client while
// logging it in full.
func respondInternal(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: prefix + ": " + err.Error()})
}

// writeJSON encodes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
