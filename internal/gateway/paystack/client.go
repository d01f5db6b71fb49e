// Package paystack implements the gateway contract against the Paystack REST
// API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kobo/internal/gateway"
)

const defaultBaseURL = "https://api.paystack.co"

// Config holds Paystack client settings.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the Paystack API. It implements gateway.Gateway.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.SecretKey == "" {
		panic("paystack secret key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		secretKey: cfg.SecretKey,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
	}
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

func (c *Client) InitializeTransaction(ctx context.Context, req gateway.InitializeRequest) (*gateway.CheckoutSession, error) {
	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    req.Amount,
		"currency":  req.Currency,
		"reference": req.Reference,
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var data initializeData
	if err := c.post(ctx, "/transaction/initialize", body, &data); err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}

	return &gateway.CheckoutSession{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
		Status:           gateway.TransferStatusPending,
		ExpiresAt:        time.Now().Add(30 * time.Minute),
	}, nil
}

type recipientData struct {
	RecipientCode string `json:"recipient_code"`
}

func (c *Client) CreateTransferRecipient(ctx context.Context, req gateway.RecipientRequest) (string, error) {
	body := map[string]interface{}{
		"type":           req.Type,
		"name":           req.Name,
		"account_number": req.AccountNumber,
		"bank_code":      req.BankCode,
		"currency":       req.Currency,
	}

	var data recipientData
	if err := c.post(ctx, "/transferrecipient", body, &data); err != nil {
		return "", fmt.Errorf("create transfer recipient: %w", err)
	}
	return data.RecipientCode, nil
}

type transferData struct {
	Status       string `json:"status"`
	TransferCode string `json:"transfer_code"`
	Reference    string `json:"reference"`
}

func (c *Client) InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	body := map[string]interface{}{
		"source":    "balance",
		"amount":    req.Amount,
		"recipient": req.RecipientCode,
		"reference": req.Reference,
		"reason":    req.Reason,
		"currency":  req.Currency,
	}

	var data transferData
	if err := c.post(ctx, "/transfer", body, &data); err != nil {
		return nil, fmt.Errorf("initiate transfer: %w", err)
	}
	return &gateway.TransferResult{
		Status:       data.Status,
		TransferCode: data.TransferCode,
		Reference:    data.Reference,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, envelope.Message)
	}
	return json.Unmarshal(envelope.Data, dest)
}
