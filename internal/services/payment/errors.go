package payment

import (
	"errors"

	domainerrors "kobo/internal/errors"
)

// Service errors
var (
	ErrInvalidRequest     = domainerrors.ErrInvalidPaymentRequest
	ErrInsufficientFunds  = domainerrors.ErrInsufficientFunds
	ErrCompensationFailed = domainerrors.ErrCompensationFailed

	// ErrTransferRejected marks a transfer the gateway reported as failed
	// without raising a transport error.
	ErrTransferRejected = errors.New("gateway rejected transfer")
)
