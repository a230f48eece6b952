// Package api holds the JSON envelope shared by every handler: {"data": ...} on
// success, {"error": "..."} on failure.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cloo-solutions/sevakai/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes v with the given status. A nil v writes headers only.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Success writes v inside the data envelope.
func Success(w http.ResponseWriter, status int, v interface{}) {
	JSON(w, status, SuccessResponse{Data: v})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes message inside the error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

var statusByCode = map[string]int{
	domain.ErrCodeValidation:    http.StatusBadRequest,
	domain.ErrCodeNotFound:      http.StatusNotFound,
	domain.ErrCodeAlreadyExists: http.StatusConflict,
	domain.ErrCodeConflict:      http.StatusConflict,
	domain.ErrCodeUnauthorized:  http.StatusUnauthorized,
	domain.ErrCodeUnavailable:   http.StatusServiceUnavailable,
}

// DomainErrorToHTTP maps domain errors to HTTP status codes. Anything else is a 500.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}
	if status, ok := statusByCode[domainErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError writes the response for err. Only domain errors expose their message.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && status != http.StatusInternalServerError {
		Error(w, status, domainErr.Message)
		return
	}
	Error(w, status, http.StatusText(status))
}

// DecodeJSON reads exactly one JSON value from the request body into v.
// On failure it writes a 400 (or 413 past the body limit) and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if err == nil && dec.More() {
		err = errors.New("unexpected data after JSON body")
	}

	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return true
	case errors.As(err, &tooLarge):
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, "request body is required")
	default:
		Error(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}
