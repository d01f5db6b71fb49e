// Package stripegw implements the gateway contract on Stripe, used for
// card-based checkout in regions Paystack does not cover. Selected via
// PAYMENT_GATEWAY=stripe.
package stripegw

import (
	"context"
	"fmt"
	"time"

	"kobo/internal/gateway"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// Config holds Stripe client settings.
type Config struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

// Gateway implements gateway.Gateway on the Stripe API.
type Gateway struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func New(cfg Config) *Gateway {
	if cfg.SecretKey == "" {
		panic("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Gateway{
		api:        api,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}
}

func (g *Gateway) InitializeTransaction(ctx context.Context, req gateway.InitializeRequest) (*gateway.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Wallet payment"),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(req.Reference),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
	}
	// Stripe dedupes on the idempotency key the same way Paystack dedupes
	// on the reference.
	params.SetIdempotencyKey(req.Reference)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}

	return &gateway.CheckoutSession{
		AuthorizationURL: sess.URL,
		AccessCode:       sess.ID,
		Reference:        req.Reference,
		Status:           gateway.TransferStatusPending,
		ExpiresAt:        time.Unix(sess.ExpiresAt, 0),
	}, nil
}

// CreateTransferRecipient maps the counterparty to a Stripe destination. The
// account number is already a connected account id for Stripe payouts, so it
// passes through as the recipient code.
func (g *Gateway) CreateTransferRecipient(ctx context.Context, req gateway.RecipientRequest) (string, error) {
	if req.AccountNumber == "" {
		return "", fmt.Errorf("create transfer recipient: missing account number")
	}
	return req.AccountNumber, nil
}

func (g *Gateway) InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	params := &stripe.TransferParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Destination: stripe.String(req.RecipientCode),
	}
	params.SetIdempotencyKey(req.Reference)
	params.AddMetadata("reference", req.Reference)
	params.AddMetadata("reason", req.Reason)

	tr, err := g.api.Transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("initiate transfer: %w", err)
	}

	return &gateway.TransferResult{
		Status:       gateway.TransferStatusPending,
		TransferCode: tr.ID,
		Reference:    req.Reference,
	}, nil
}
