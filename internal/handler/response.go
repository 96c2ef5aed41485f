package handler

// Response helpers: one place that knows how domain errors map to HTTP.
//
// The service layer returns apperror values; this file translates them.
// Handlers never pick status codes ad hoc, so every endpoint fails with
// the same JSON shape:
//
//	{"error": "duplicate_email", "message": "Email already exists. ..."}
//
// The chat endpoint is the one exception - its error body uses a `reply`
// field (see chat.go) because that is the contract its clients parse.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mannsakha/mannsakha/internal/apperror"
)

// ErrorResponse is the standard error format for the auth API.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "duplicate_email"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response. Headers and status must be set before
// the first body write - hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// Everything is matched through errors.Is so wrapping in the service layer
// (fmt.Errorf with %w) doesn't break the mapping. Unknown errors become a
// generic 500 - internal details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrDuplicate):
			// 400, not 409 - the API contract groups it with input errors,
			// distinguishable only by the error type string.
			status = http.StatusBadRequest
			errorType = "duplicate_email"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status = http.StatusBadRequest
			errorType = "invalid_credentials"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrMisconfigured):
			status = http.StatusInternalServerError
			errorType = "misconfigured"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
