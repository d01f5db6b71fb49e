package payment

import (
	"context"
	"time"

	"kobo/internal/models"
	"kobo/internal/services/retry"
)

// Service drives the end-to-end payment and transfer sagas.
type Service interface {
	PayMerchant(ctx context.Context, req MerchantPaymentRequest) (*MerchantPaymentResult, error)
	TransferPeer(ctx context.Context, req PeerTransferRequest) (*PeerTransferResult, error)
}

// WalletLedger is the slice of the wallet service the orchestrator uses.
type WalletLedger interface {
	Credit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error)
	Debit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error)
	TransferRoundUp(ctx context.Context, userID uint, amount int64) error
	RequireWallet(ctx context.Context, userID uint, walletType models.WalletType) (*models.Wallet, error)
}

// TransactionStore persists transaction records.
type TransactionStore interface {
	Create(txn *models.Transaction) error
	Update(txn *models.Transaction) error
	FindByID(id string) (*models.Transaction, error)
}

// RuleStore reads round-up configuration.
type RuleStore interface {
	FindByUserID(userID uint) (*models.RoundUpRule, error)
}

// RetryScheduler schedules a bounded retry for a failed transaction.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, txn *models.Transaction) (*retry.Info, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints ids for records the orchestrator creates itself, such as
// companion round-up transactions. Payment and transfer ids are supplied by
// the caller and never regenerated here.
type IDGenerator interface {
	NewID() string
}
