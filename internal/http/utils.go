package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/letterforge/letterforge/internal/domain"
)

// WriteJSONError writes a JSON error response with the given message and
// status code as {"error": "message"}.
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps well-known domain error kinds onto HTTP status
// codes; anything else is a 500. A structural error wrapping a not-found
// is still a bad request: the batch itself was unusable.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case domain.IsStructural(err):
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case domain.IsNotFound(err):
		WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &verr):
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}
