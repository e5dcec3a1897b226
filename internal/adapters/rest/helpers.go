package rest

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to do but note it.
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError emits the uniform error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeErrorWithDetails includes the underlying cause, used only outside
// production.
func writeErrorWithDetails(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"details": details,
	})
}
