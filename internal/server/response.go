package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"videohub/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps an upload or listing failure to its HTTP status.
func statusFor(err error) int {
	var rej *domain.ServerValidationError
	if errors.As(err, &rej) {
		return rej.Status
	}
	return http.StatusInternalServerError
}
