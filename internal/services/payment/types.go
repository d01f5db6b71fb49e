package payment

import (
	"time"

	"kobo/internal/gateway"
	"kobo/internal/models"
	"kobo/internal/services/retry"

	"github.com/google/uuid"
)

// Result statuses returned by the orchestrator.
const (
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Config holds orchestrator settings.
type Config struct {
	Currency       string
	GatewayTimeout time.Duration
}

// MerchantPaymentRequest starts a merchant payment. PaymentID is the
// caller-supplied idempotent id: it becomes the transaction id and the
// gateway reference, and must not be regenerated on retry.
type MerchantPaymentRequest struct {
	PaymentID    string                 `json:"payment_id"`
	UserID       uint                   `json:"-"`
	Email        string                 `json:"email"`
	MerchantName string                 `json:"merchant_name"`
	Amount       int64                  `json:"amount"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// MerchantPaymentResult is the outcome of a merchant payment orchestration.
type MerchantPaymentResult struct {
	Status             string                   `json:"status"`
	PaymentTransaction *models.Transaction      `json:"payment_transaction"`
	RoundUpTransaction *models.Transaction      `json:"round_up_transaction,omitempty"`
	TotalCharged       int64                    `json:"total_charged"`
	CheckoutSession    *gateway.CheckoutSession `json:"checkout_session,omitempty"`
	ScheduledRetry     *retry.Info              `json:"scheduled_retry,omitempty"`
}

// PeerTransferRequest starts a peer transfer. TransferID follows the same
// idempotency contract as PaymentID.
type PeerTransferRequest struct {
	TransferID        string `json:"transfer_id"`
	UserID            uint   `json:"-"`
	Amount            int64  `json:"amount"`
	Reason            string `json:"reason"`
	RecipientName     string `json:"recipient_name"`
	RecipientPhone    string `json:"recipient_phone,omitempty"`
	RecipientEmail    string `json:"recipient_email,omitempty"`
	RecipientProvider string `json:"recipient_provider,omitempty"` // mobile-money provider bank code
}

// PeerTransferResult is the outcome of a peer transfer orchestration.
type PeerTransferResult struct {
	Status              string              `json:"status"`
	TransferTransaction *models.Transaction `json:"transfer_transaction"`
	RoundUpTransaction  *models.Transaction `json:"round_up_transaction,omitempty"`
	TotalCharged        int64               `json:"total_charged"`
	TransferCode        string              `json:"transfer_code,omitempty"`
	ScheduledRetry      *retry.Info         `json:"scheduled_retry,omitempty"`
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// UUIDGenerator mints random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
