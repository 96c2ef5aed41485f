// Package apperror defines the application's error taxonomy.
//
// Services return these errors (usually wrapped with fmt.Errorf and %w);
// the HTTP layer maps them to status codes with errors.Is/errors.As.
// Keeping the taxonomy here means the service layer never has to know
// about HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed or missing client input.
	ErrValidation = errors.New("validation error")

	// ErrDuplicate marks a signup attempt with an email that already has an
	// account. Distinguishable from plain validation so the client can show
	// "email already exists" - but the message never says whether the
	// existing account is local or federated.
	ErrDuplicate = errors.New("duplicate")

	// ErrInvalidCredentials is returned for BOTH unknown email and wrong
	// password. The two cases must be indistinguishable in response shape
	// to limit user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUnauthorized = errors.New("unauthorized")

	// ErrMisconfigured marks missing required server configuration
	// (e.g. no upstream API key). Operator-facing, never retried.
	ErrMisconfigured = errors.New("misconfigured")

	// ErrNoModels: the upstream model listing failed or came back empty,
	// so the pipeline stops before attempting generation.
	ErrNoModels = errors.New("no models available")

	// ErrUpstreamShape: the upstream replied 200 but the payload did not
	// contain a usable text candidate.
	ErrUpstreamShape = errors.New("unexpected upstream response shape")
)

// AppError pairs a sentinel (for errors.Is) with a human-readable message
// that is safe to return to clients.
type AppError struct {
	Err     error  // sentinel category
	Message string // human-readable, client-safe
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail returns the error for a signup against an existing email.
// The message deliberately omits which auth method the existing account uses.
func DuplicateEmail() *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: "Email already exists. Please use a different email.",
		Field:   "email",
	}
}

// InvalidCredentials returns the generic login failure. One message for
// every failure mode - unknown email, wrong password.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid email or password.",
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func Misconfigured(message string) *AppError {
	return &AppError{
		Err:     ErrMisconfigured,
		Message: message,
	}
}

func NoModels(message string) *AppError {
	return &AppError{
		Err:     ErrNoModels,
		Message: message,
	}
}

func UpstreamShape(message string) *AppError {
	return &AppError{
		Err:     ErrUpstreamShape,
		Message: message,
	}
}
