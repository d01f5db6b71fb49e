package wallet

import (
	"context"

	"kobo/internal/models"
)

// Service is the wallet ledger. It owns the balance invariants and is the
// only code path allowed to mutate wallets. All mutations to a given wallet
// are totally ordered: the service serializes them behind a per-wallet lock
// and the repository enforces a version check on write.
type Service interface {
	// Credit increases balance and available balance by amount.
	Credit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error)

	// Debit decreases balance and available balance by amount, failing with
	// ErrInsufficientFunds when the available balance cannot cover it.
	Debit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error)

	// TransferRoundUp moves amount from the main wallet to the savings
	// wallet as one atomic operation; neither wallet is left partially
	// mutated on failure.
	TransferRoundUp(ctx context.Context, userID uint, amount int64) error

	// RequireWallet is a fetch-or-fail lookup.
	RequireWallet(ctx context.Context, userID uint, walletType models.WalletType) (*models.Wallet, error)

	// CreateWallet provisions a wallet for a user.
	CreateWallet(ctx context.Context, userID uint, walletType models.WalletType, currency string) (*models.Wallet, error)
}
