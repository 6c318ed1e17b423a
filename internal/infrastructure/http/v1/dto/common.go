// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"atelier/internal/core/apperror"
	"atelier/internal/core/id"
	"atelier/internal/core/types"
)

// SuccessResponse is the envelope of every successful response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every failed response.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// OK wraps data in a success envelope.
func OK(message string, data any) SuccessResponse {
	return SuccessResponse{Success: true, Message: message, Data: data}
}

// Failure builds the error envelope for err.
func Failure(err *apperror.AppError) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Code:    err.Code,
		Message: err.Message,
		Details: err.Details,
	}
}

// parseDate parses an optional YYYY-MM-DD field. Empty yields fallback.
func parseDate(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := types.ParseDate(value)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return t, nil
}

// parseOptionalDate parses a YYYY-MM-DD field that may be absent.
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(field, *value, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseOptionalID parses an id query parameter that may be absent.
func parseOptionalID(field, value string) (*id.ID, error) {
	if value == "" {
		return nil, nil
	}
	v, err := id.Parse(value)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return &v, nil
}
