package models

import (
	"fmt"
	"time"
)

// WalletType distinguishes the two wallets every user owns.
type WalletType string

const (
	WalletTypeMain    WalletType = "main"
	WalletTypeSavings WalletType = "savings"
)

// Wallet holds a user's balance in integer minor currency units (kobo).
// AvailableBalance is the portion not held by pending settlements, so
// 0 <= AvailableBalance <= Balance must hold at all times. Wallets are
// only ever mutated through the wallet ledger service.
type Wallet struct {
	ID                    uint       `gorm:"primarykey"`
	UserID                uint       `gorm:"uniqueIndex:idx_wallet_user_type;not null"`
	Type                  WalletType `gorm:"uniqueIndex:idx_wallet_user_type;not null;default:'main'"`
	Balance               int64      `gorm:"not null;default:0"`
	AvailableBalance      int64      `gorm:"not null;default:0"`
	Currency              string     `gorm:"default:'NGN'"`
	Status                string     `gorm:"default:'active'"`
	WithdrawalRestriction JSON       `gorm:"type:jsonb"` // opaque settlement-delay config on savings wallets
	LastTransactionAt     *time.Time
	Version               int64 `gorm:"not null;default:1"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CheckInvariants validates the balance invariants. A violation is a
// programming error in the ledger, never a user-facing condition.
func (w *Wallet) CheckInvariants() error {
	if w.Balance < 0 {
		return fmt.Errorf("wallet %d: negative balance %d", w.ID, w.Balance)
	}
	if w.AvailableBalance < 0 {
		return fmt.Errorf("wallet %d: negative available balance %d", w.ID, w.AvailableBalance)
	}
	if w.AvailableBalance > w.Balance {
		return fmt.Errorf("wallet %d: available balance %d exceeds balance %d", w.ID, w.AvailableBalance, w.Balance)
	}
	return nil
}
