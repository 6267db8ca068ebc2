package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error kinds. Every expected business failure wraps one of these so
// callers can map it to a protocol-level response without re-deriving
// context.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrStateConflict       = errors.New("invalid state")
	ErrChargeExpired       = errors.New("charge expired")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	ErrValidation          = errors.New("validation error")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// StateConflict creates an invalid-state error.
func StateConflict(message string) *AppError {
	return &AppError{
		Code:       "STATE_CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrStateConflict,
	}
}

// ChargeExpired creates a charge-expired error. Expiry is a terminal
// resolution, distinct from a generic conflict.
func ChargeExpired(message string) *AppError {
	return &AppError{
		Code:       "CHARGE_EXPIRED",
		Message:    message,
		StatusCode: http.StatusGone,
		Err:        ErrChargeExpired,
	}
}

// IdempotencyConflict creates an idempotency-conflict error.
func IdempotencyConflict(message string) *AppError {
	return &AppError{
		Code:       "IDEMPOTENCY_CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrIdempotencyConflict,
	}
}

// Validation creates a validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrValidation,
	}
}
