// Package gateway defines the payment gateway client contract. All calls are
// idempotent when given the same reference, so a retried orchestration lands
// on the same downstream charge or transfer.
package gateway

import (
	"context"
	"time"
)

// InitializeRequest opens a checkout session for a charge.
type InitializeRequest struct {
	Email     string
	Amount    int64 // minor currency units
	Currency  string
	Reference string
	Metadata  map[string]interface{}
}

// CheckoutSession is a gateway-issued reference/URL pair for a not-yet-settled
// payment intent.
type CheckoutSession struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Status           string
	ExpiresAt        time.Time
}

// RecipientRequest registers a transfer counterparty with the gateway.
type RecipientRequest struct {
	Type          string
	Name          string
	AccountNumber string
	BankCode      string
	Currency      string
}

// TransferRequest moves funds to a previously created recipient.
type TransferRequest struct {
	Amount        int64
	RecipientCode string
	Reference     string
	Reason        string
	Currency      string
}

// Transfer statuses reported by the gateway. A "failed" status is a
// semantically failed result, not a transport error, and callers must treat
// it like one.
const (
	TransferStatusPending = "pending"
	TransferStatusSuccess = "success"
	TransferStatusFailed  = "failed"
)

// TransferResult is the gateway's answer to an initiated transfer.
type TransferResult struct {
	Status       string
	TransferCode string
	Reference    string
}

// Gateway is the external payment gateway client contract.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*CheckoutSession, error)
	CreateTransferRecipient(ctx context.Context, req RecipientRequest) (string, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}
