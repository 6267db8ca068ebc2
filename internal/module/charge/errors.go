package charge

import apperrors "github.com/ventrapay/escrow-server/internal/shared/errors"

// Module errors. Each sentinel is an AppError so handlers resolve the
// HTTP status and error code through the shared taxonomy.
var (
	ErrChargeNotFound    = apperrors.NotFound("charge")
	ErrChargeNotPending  = apperrors.StateConflict("charge is not pending")
	ErrChargeExpired     = apperrors.ChargeExpired("charge expired")
	ErrInvalidTransition = apperrors.StateConflict("invalid charge status transition")

	// ErrOrderNotAwaitingPayment is returned when a charge operation
	// requires the parent order to still accept payment.
	ErrOrderNotAwaitingPayment = apperrors.StateConflict("order is not awaiting payment")
)
