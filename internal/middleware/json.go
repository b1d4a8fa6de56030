package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// WantsJSON reports whether the client should get JSON error bodies: API
// paths always do, other paths only when they ask for JSON.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// WriteJSON encodes v as the response body with the given status. It is
// the one JSON writer shared by the API and the presentation views.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeJSONDetail writes {"detail": msg} with the given status.
func writeJSONDetail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"detail": msg})
}
