package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestConstructorsMatchTheirSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"NotFound", NotFound("user", "abc"), ErrNotFound},
		{"ValidationFailed", ValidationFailed("email", "email is required"), ErrValidation},
		{"DuplicateEmail", DuplicateEmail(), ErrDuplicate},
		{"InvalidCredentials", InvalidCredentials(), ErrInvalidCredentials},
		{"Unauthorized", Unauthorized("no session"), ErrUnauthorized},
		{"Misconfigured", Misconfigured("API key not configured"), ErrMisconfigured},
		{"NoModels", NoModels("no models"), ErrNoModels},
		{"UpstreamShape", UpstreamShape("bad shape"), ErrUpstreamShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
		})
	}
}

func TestWrappingPreservesTheSentinel(t *testing.T) {
	// Services wrap with %w; the HTTP layer must still match the category.
	wrapped := fmt.Errorf("service/auth: creating user: %w", DuplicateEmail())

	if !errors.Is(wrapped, ErrDuplicate) {
		t.Error("wrapping broke errors.Is matching")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("wrapping broke errors.As extraction")
	}
	if appErr.Message == "" {
		t.Error("extracted AppError has no message")
	}
}

func TestErrorReturnsClientSafeMessage(t *testing.T) {
	err := DuplicateEmail()
	if err.Error() != "Email already exists. Please use a different email." {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidationFailedCarriesField(t *testing.T) {
	err := ValidationFailed("dob", "date of birth is required")
	if err.Field != "dob" {
		t.Errorf("Field = %q, want dob", err.Field)
	}
}
