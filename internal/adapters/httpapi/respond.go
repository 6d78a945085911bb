package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/upkeep/internal/ports/secondary"
)

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := apiResponse{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := apiResponse{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondError(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func respondNotFound(w http.ResponseWriter, message string) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", message)
}

func respondInternalError(w http.ResponseWriter, message string) {
	respondError(w, http.StatusInternalServerError, "INTERNAL", message)
}

// respondServiceError maps a service error to a response: the
// repositories' not-found sentinel becomes 404, anything else 500.
// Business outcomes never arrive here; they travel in result structs.
func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, secondary.ErrNotFound) {
		respondNotFound(w, err.Error())
		return
	}
	respondInternalError(w, err.Error())
}

// decodeBody decodes a JSON request body into dst, rejecting unknown
// fields so typos surface instead of silently dropping input.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
