// Package httputil maps domain errors onto HTTP responses.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "jiran/pkg/domain-errors"
)

// ErrorResponse is the uniform JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status. Encoding failures are
// swallowed; the status line has already been written.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError converts a coded domain error into the uniform envelope.
// Only the coded message is surfaced; wrapped causes stay in logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, StatusFor(code), ErrorResponse{
		Error:   "request_failed",
		Code:    string(code),
		Message: dErrors.MessageOf(err),
	})
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeAlreadyExists:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
