package wallet

import (
	"errors"

	domainerrors "kobo/internal/errors"
)

// Service errors
var (
	ErrInsufficientFunds = domainerrors.ErrInsufficientFunds
	ErrWalletNotFound    = domainerrors.ErrWalletNotFound
	ErrInvalidAmount     = domainerrors.ErrInvalidAmount

	// ErrInvariantViolated marks a programming error in the ledger; it is
	// fatal and never retried.
	ErrInvariantViolated = errors.New("wallet invariant violated")
)
