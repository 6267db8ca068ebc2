package ledger

import apperrors "github.com/ventrapay/escrow-server/internal/shared/errors"

var (
	ErrInvalidAmount = apperrors.Validation("ledger entry amount must be positive")
	ErrOrderNotFound = apperrors.NotFound("order")
)
