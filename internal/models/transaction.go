package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypePayment     = "payment"
	TransactionTypeTransferOut = "transfer_out"
	TransactionTypeRoundUp     = "round_up"
	TransactionTypeDeposit     = "deposit"
	TransactionTypeWithdrawal  = "withdrawal"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// RoundUpDetails links a payment transaction with its companion round-up
// transaction. Zero value means no round-up was applied.
type RoundUpDetails struct {
	OriginalAmount      int64  `json:"original_amount"`
	RoundUpAmount       int64  `json:"round_up_amount"`
	Rule                string `json:"rule"`
	LinkedTransactionID string `json:"linked_transaction_id"`
}

// Transaction is the immutable-intent record of one monetary event. The
// primary key is the caller-supplied idempotent id, which doubles as the
// gateway reference so a retried caller lands on the same charge.
type Transaction struct {
	ID                    string `gorm:"primarykey"`
	UserID                uint   `gorm:"index;not null"`
	Type                  string `gorm:"not null"`
	Status                string `gorm:"not null;default:'pending'"`
	Amount                int64  `gorm:"not null"`
	Fee                   int64  `gorm:"default:0"`
	Currency              string `gorm:"default:'NGN'"`
	Description           string
	CounterpartyID        *uint
	RoundUp               RoundUpDetails `gorm:"embedded;embeddedPrefix:round_up_"`
	RetryCount            int            `gorm:"default:0"`
	LastRetryAt           *time.Time
	NextRetryAt           *time.Time
	ExternalReference     string `gorm:"index"`
	ExternalTransactionID string
	AccessCode            string
	Metadata              JSON `gorm:"type:jsonb"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasRoundUp reports whether a companion round-up transaction exists.
func (t *Transaction) HasRoundUp() bool {
	return t.RoundUp.LinkedTransactionID != ""
}
