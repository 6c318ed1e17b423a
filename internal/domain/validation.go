// Package domain holds helpers shared by the domain services.
package domain

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"atelier/internal/core/apperror"
	"atelier/internal/core/types"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct checks v against its `validate` tags and converts failures
// into a VALIDATION error whose details map each failing field to its rule.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.NewInternal(err)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		fields[ve.Namespace()] = ve.Tag()
	}
	return apperror.NewValidation("invalid input").WithDetail("fields", fields)
}

// RequireNonNegative rejects a negative amount.
func RequireNonNegative(field string, v types.Money) error {
	if v.IsNegative() {
		return apperror.NewValidation(field+" must not be negative").
			WithDetail("field", field)
	}
	return nil
}

// RequirePositive rejects zero or negative amounts.
func RequirePositive(field string, v types.Money) error {
	if !v.IsPositive() {
		return apperror.NewValidation(field+" must be positive").
			WithDetail("field", field)
	}
	return nil
}

var hundred = types.MustMoney("100")

// RequirePercentage accepts values in [0, 100].
func RequirePercentage(field string, v types.Money) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return apperror.NewValidation(field+" must be between 0 and 100").
			WithDetail("field", field)
	}
	return nil
}
