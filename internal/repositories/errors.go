package repositories

import "errors"

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStaleWallet         = errors.New("wallet version conflict")
)
