package order

import (
	"net/http"

	apperrors "github.com/ventrapay/escrow-server/internal/shared/errors"
)

// Module errors. Each sentinel is an AppError so handlers resolve the
// HTTP status and error code through the shared taxonomy.
var (
	ErrOrderNotFound     = apperrors.NotFound("order")
	ErrOrderNotInEscrow  = apperrors.StateConflict("order not paid in escrow")
	ErrInvalidTransition = apperrors.StateConflict("invalid order status transition")
	ErrInvalidAmount     = apperrors.Validation("amount_cents must be positive")
	ErrInvalidCurrency   = apperrors.Validation("currency must be a 3-letter code")

	// ErrOrderDisputed gets its own code so callers can tell a dispute
	// hold apart from an ordinary state conflict.
	ErrOrderDisputed = &apperrors.AppError{
		Code:       "ORDER_DISPUTED",
		Message:    "order disputed",
		StatusCode: http.StatusConflict,
		Err:        apperrors.ErrStateConflict,
	}
)
