package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mannsakha/mannsakha/internal/apperror"
)

// AppValidator wraps go-playground/validator for request structs.
//
// Validation failures become apperror.ValidationFailed, so the response
// helper maps them to 400 like every other validation error. Only the
// first failing field is reported - enough for the client to show a
// message, and it keeps the error shape flat.
type AppValidator struct {
	validator *validator.Validate
}

// NewAppValidator creates an AppValidator.
func NewAppValidator() *AppValidator {
	return &AppValidator{validator: validator.New()}
}

// Validate validates a struct using its `validate` tags.
func (v *AppValidator) Validate(i any) error {
	if err := v.validator.Struct(i); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if ok && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return apperror.ValidationFailed(fe.Field(),
				fmt.Sprintf("%s failed on '%s' validation", fe.Field(), fe.Tag()))
		}
		return apperror.ValidationFailed("", "invalid request")
	}
	return nil
}
