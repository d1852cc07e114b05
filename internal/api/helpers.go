package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse represents a standard API error response.
type ErrorResponse struct {
	Error string `json:"error"`

	// Retryable marks errors the UI answers with a retry affordance
	// rather than a transient banner.
	Retryable bool `json:"retryable,omitempty"`
}

// WriteError sends a JSON error response.
func WriteError(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

// WriteRetryableError sends a JSON error response flagged retryable.
func WriteRetryableError(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: fmt.Sprintf(format, args...), Retryable: true})
}

// WriteJSON sends a JSON success response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
