package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		kind   error
		code   string
		status int
	}{
		{"not found", NotFound("order"), ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{"state conflict", StateConflict("order not paid in escrow"), ErrStateConflict, "STATE_CONFLICT", http.StatusConflict},
		{"charge expired", ChargeExpired("charge expired"), ErrChargeExpired, "CHARGE_EXPIRED", http.StatusGone},
		{"idempotency conflict", IdempotencyConflict("key reused"), ErrIdempotencyConflict, "IDEMPOTENCY_CONFLICT", http.StatusConflict},
		{"validation", Validation("amount must be positive"), ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.ErrorIs(t, tt.err, tt.kind)
		})
	}
}

func TestAppError_WrappingSurvivesErrorf(t *testing.T) {
	sentinel := StateConflict("charge is not pending")
	wrapped := fmt.Errorf("%w: charge abc is PAID", sentinel)

	// The sentinel itself and its kind both stay matchable.
	assert.ErrorIs(t, wrapped, sentinel)
	assert.ErrorIs(t, wrapped, ErrStateConflict)

	var appErr *AppError
	assert.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "order not found: resource not found", NotFound("order").Error())
	assert.Equal(t, "boom", (&AppError{Message: "boom"}).Error())
}
