// Package repositories provides the data access layer. Interfaces here are
// the contracts the services depend on; gorm-backed implementations live
// alongside them.
package repositories

import (
	"context"
	"time"

	"kobo/internal/models"
)

// WalletRepository persists wallets. Save performs an optimistic-concurrency
// write: it only applies when the stored row still carries the version the
// wallet was read at, and returns ErrStaleWallet otherwise. Combined with the
// ledger's per-wallet locks this gives each wallet a total order of mutations.
type WalletRepository interface {
	Create(wallet *models.Wallet) error
	FindByUserAndType(userID uint, walletType models.WalletType) (*models.Wallet, error)
	Save(wallet *models.Wallet) error
	ExecuteInTransaction(fn func(tx WalletRepository) error) error
}

// TransactionRepository persists transaction records. Update writes only the
// changed fields and does not re-run domain validation.
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	Update(txn *models.Transaction) error
	FindByID(id string) (*models.Transaction, error)
	FindByUserID(userID uint, limit, offset int) ([]models.Transaction, error)
}

// RoundUpRuleRepository reads per-user round-up configuration. Returns
// (nil, nil) when the user has no rule.
type RoundUpRuleRepository interface {
	FindByUserID(userID uint) (*models.RoundUpRule, error)
}

// RetryQueue receives scheduled retry jobs. The consumer that executes them
// is a separate worker.
type RetryQueue interface {
	Enqueue(ctx context.Context, job models.RetryJob) error
}

// CacheRepository is the wallet read cache.
type CacheRepository interface {
	GetWallet(ctx context.Context, userID uint, walletType models.WalletType) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, userID uint, walletType models.WalletType) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}
