package repositories

import (
	"errors"
	"fmt"

	"kobo/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a gorm-backed wallet repository.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(wallet *models.Wallet) error {
	if wallet.Version == 0 {
		wallet.Version = 1
	}
	if err := r.db.Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) FindByUserAndType(userID uint, walletType models.WalletType) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Where("user_id = ? AND type = ?", userID, walletType).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// Save applies the wallet's current state with a compare-and-swap on the
// version column. RowsAffected == 0 means another writer got there first.
func (r *walletRepository) Save(wallet *models.Wallet) error {
	currentVersion := wallet.Version
	wallet.Version++
	result := r.db.Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, currentVersion).
		Updates(map[string]interface{}{
			"balance":             wallet.Balance,
			"available_balance":   wallet.AvailableBalance,
			"last_transaction_at": wallet.LastTransactionAt,
			"version":             wallet.Version,
			"updated_at":          wallet.UpdatedAt,
		})
	if result.Error != nil {
		wallet.Version = currentVersion
		return fmt.Errorf("failed to save wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		wallet.Version = currentVersion
		return ErrStaleWallet
	}
	return nil
}

func (r *walletRepository) ExecuteInTransaction(fn func(tx WalletRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx.Clauses(clause.Locking{Strength: "UPDATE"})})
	})
}
