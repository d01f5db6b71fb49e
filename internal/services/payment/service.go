// Package payment orchestrates merchant payments and peer transfers: round-up
// computation, wallet movements, the external gateway session and transaction
// persistence, with compensation and bounded retry on failure.
package payment

import (
	"context"
	"fmt"
	"time"

	"kobo/internal/gateway"
	"kobo/internal/models"
	"kobo/internal/services/retry"
	"kobo/internal/services/roundup"
	"kobo/internal/services/wallet"

	"go.uber.org/zap"
)

const (
	defaultGatewayTimeout = 30 * time.Second
	degradedIncrement     = "0"
)

type service struct {
	ledger  WalletLedger
	gw      gateway.Gateway
	txns    TransactionStore
	rules   RuleStore
	retries RetryScheduler
	clock   Clock
	ids     IDGenerator
	metrics wallet.MetricsCollector
	logger  *zap.Logger
	config  Config
}

// NewService creates the payment orchestrator.
func NewService(
	ledger WalletLedger,
	gw gateway.Gateway,
	txns TransactionStore,
	rules RuleStore,
	retries RetryScheduler,
	clock Clock,
	ids IDGenerator,
	metrics wallet.MetricsCollector,
	logger *zap.Logger,
	config Config,
) Service {
	if ledger == nil {
		panic("wallet ledger is required")
	}
	if gw == nil {
		panic("gateway is required")
	}
	if txns == nil {
		panic("transaction store is required")
	}
	if rules == nil {
		panic("rule store is required")
	}
	if retries == nil {
		panic("retry scheduler is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if metrics == nil {
		metrics = &wallet.NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Currency == "" {
		config.Currency = "NGN"
	}
	if config.GatewayTimeout == 0 {
		config.GatewayTimeout = defaultGatewayTimeout
	}

	return &service{
		ledger:  ledger,
		gw:      gw,
		txns:    txns,
		rules:   rules,
		retries: retries,
		clock:   clock,
		ids:     ids,
		metrics: metrics,
		logger:  logger,
		config:  config,
	}
}

func (s *service) PayMerchant(ctx context.Context, req MerchantPaymentRequest) (*MerchantPaymentResult, error) {
	if err := validateMerchantRequest(req); err != nil {
		return nil, err
	}

	rule, err := s.rules.FindByUserID(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round-up rule: %w", err)
	}
	contribution := roundup.Compute(req.Amount, rule)
	roundUpAmount := contribution.RoundUpAmount
	incrementUsed := contribution.IncrementUsed

	mainWallet, err := s.ledger.RequireWallet(ctx, req.UserID, models.WalletTypeMain)
	if err != nil {
		return nil, err
	}
	roundUpAmount, err = s.applyRoundUpHeadroom(mainWallet, req.Amount, roundUpAmount)
	if err != nil {
		return nil, err
	}
	if roundUpAmount == 0 && contribution.RoundUpAmount > 0 {
		incrementUsed = degradedIncrement
	}

	// Gateway session first: a failure here needs no compensation because
	// no wallet has been touched yet.
	session, err := s.initializeCheckout(ctx, req, req.Amount+roundUpAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize checkout: %w", err)
	}

	comp := newCompensationStack(s.logger)

	if _, err := s.ledger.Debit(ctx, req.UserID, models.WalletTypeMain, req.Amount); err != nil {
		return nil, err
	}
	amount := req.Amount
	comp.push("credit main wallet", func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, req.UserID, models.WalletTypeMain, amount)
		return err
	})

	roundUpApplied := false
	if roundUpAmount > 0 {
		if err := s.ledger.TransferRoundUp(ctx, req.UserID, roundUpAmount); err != nil {
			// The transfer is atomic, so nothing moved. Round-up is an
			// optional feature; continue without it.
			s.logger.Warn("round-up transfer failed, continuing without round-up",
				zap.Uint("user_id", req.UserID),
				zap.Error(err))
			roundUpAmount = 0
			incrementUsed = degradedIncrement
		} else {
			roundUpApplied = true
			ru := roundUpAmount
			comp.push("reverse round-up transfer", func(ctx context.Context) error {
				return s.reverseRoundUp(ctx, req.UserID, ru)
			})
		}
	}

	now := s.clock.Now()
	payTxn := &models.Transaction{
		ID:          req.PaymentID,
		UserID:      req.UserID,
		Type:        models.TransactionTypePayment,
		Status:      models.TransactionStatusPending,
		Amount:      req.Amount,
		Currency:    s.config.Currency,
		Description: req.Description,
		Metadata:    models.NewJSON(req.Metadata),
		CreatedAt:   now,
	}
	if req.MerchantName != "" {
		payTxn.Metadata["merchant_name"] = req.MerchantName
	}

	var ruTxn *models.Transaction
	if roundUpApplied {
		ruTxn = s.buildRoundUpTransaction(req.UserID, payTxn, req.Amount, roundUpAmount, incrementUsed, now)
		payTxn.RoundUp = models.RoundUpDetails{
			OriginalAmount:      req.Amount,
			RoundUpAmount:       roundUpAmount,
			Rule:                incrementUsed,
			LinkedTransactionID: ruTxn.ID,
		}
	}

	if err := s.txns.Create(payTxn); err != nil {
		// No transaction record exists yet: compensate, then surface the
		// raw error since there is nothing to return a failed result for.
		if undoErr := comp.unwind(ctx); undoErr != nil {
			return nil, fmt.Errorf("%w: %v (cause: %v)", ErrCompensationFailed, undoErr, err)
		}
		return nil, fmt.Errorf("failed to persist payment transaction: %w", err)
	}
	if ruTxn != nil {
		if err := s.txns.Create(ruTxn); err != nil {
			return s.failMerchantPayment(ctx, comp, payTxn, nil, err)
		}
	}

	payTxn.ExternalReference = session.Reference
	payTxn.AccessCode = session.AccessCode
	if err := s.txns.Update(payTxn); err != nil {
		return s.failMerchantPayment(ctx, comp, payTxn, ruTxn, err)
	}

	s.metrics.RecordTransaction("merchant_payment", req.Amount+roundUpAmount)
	return &MerchantPaymentResult{
		Status:             StatusPending,
		PaymentTransaction: payTxn,
		RoundUpTransaction: ruTxn,
		TotalCharged:       req.Amount + roundUpAmount,
		CheckoutSession:    session,
	}, nil
}

func (s *service) TransferPeer(ctx context.Context, req PeerTransferRequest) (*PeerTransferResult, error) {
	if err := validateTransferRequest(req); err != nil {
		return nil, err
	}

	rule, err := s.rules.FindByUserID(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round-up rule: %w", err)
	}
	contribution := roundup.Compute(req.Amount, rule)
	roundUpAmount := contribution.RoundUpAmount
	incrementUsed := contribution.IncrementUsed

	mainWallet, err := s.ledger.RequireWallet(ctx, req.UserID, models.WalletTypeMain)
	if err != nil {
		return nil, err
	}
	roundUpAmount, err = s.applyRoundUpHeadroom(mainWallet, req.Amount, roundUpAmount)
	if err != nil {
		return nil, err
	}
	if roundUpAmount == 0 && contribution.RoundUpAmount > 0 {
		incrementUsed = degradedIncrement
	}

	// Recipient resolution is a gateway call, but it happens before any
	// wallet mutation so a failure here needs no compensation.
	recipientCode, err := s.resolveRecipientWithTimeout(ctx, req)
	if err != nil {
		return nil, err
	}

	comp := newCompensationStack(s.logger)

	if _, err := s.ledger.Debit(ctx, req.UserID, models.WalletTypeMain, req.Amount); err != nil {
		return nil, err
	}
	amount := req.Amount
	comp.push("credit main wallet", func(ctx context.Context) error {
		_, err := s.ledger.Credit(ctx, req.UserID, models.WalletTypeMain, amount)
		return err
	})

	roundUpApplied := false
	if roundUpAmount > 0 {
		if err := s.ledger.TransferRoundUp(ctx, req.UserID, roundUpAmount); err != nil {
			s.logger.Warn("round-up transfer failed, continuing without round-up",
				zap.Uint("user_id", req.UserID),
				zap.Error(err))
			roundUpAmount = 0
			incrementUsed = degradedIncrement
		} else {
			roundUpApplied = true
			ru := roundUpAmount
			comp.push("reverse round-up transfer", func(ctx context.Context) error {
				return s.reverseRoundUp(ctx, req.UserID, ru)
			})
		}
	}

	now := s.clock.Now()
	transferTxn := &models.Transaction{
		ID:          req.TransferID,
		UserID:      req.UserID,
		Type:        models.TransactionTypeTransferOut,
		Status:      models.TransactionStatusPending,
		Amount:      req.Amount,
		Currency:    s.config.Currency,
		Description: req.Reason,
		Metadata: models.JSON{
			"recipient_code": recipientCode,
			"recipient_name": req.RecipientName,
		},
		CreatedAt: now,
	}

	var ruTxn *models.Transaction
	if roundUpApplied {
		ruTxn = s.buildRoundUpTransaction(req.UserID, transferTxn, req.Amount, roundUpAmount, incrementUsed, now)
		transferTxn.RoundUp = models.RoundUpDetails{
			OriginalAmount:      req.Amount,
			RoundUpAmount:       roundUpAmount,
			Rule:                incrementUsed,
			LinkedTransactionID: ruTxn.ID,
		}
	}

	if err := s.txns.Create(transferTxn); err != nil {
		if undoErr := comp.unwind(ctx); undoErr != nil {
			return nil, fmt.Errorf("%w: %v (cause: %v)", ErrCompensationFailed, undoErr, err)
		}
		return nil, fmt.Errorf("failed to persist transfer transaction: %w", err)
	}
	if ruTxn != nil {
		if err := s.txns.Create(ruTxn); err != nil {
			return s.failPeerTransfer(ctx, comp, transferTxn, nil, err)
		}
	}

	// Unlike PayMerchant, the external call comes after local bookkeeping:
	// the transfer reference is only known once the record exists.
	result, err := s.initiateTransfer(ctx, req, recipientCode)
	if err != nil {
		return s.failPeerTransfer(ctx, comp, transferTxn, ruTxn, err)
	}
	if result.Status == gateway.TransferStatusFailed {
		// A semantically failed result is treated exactly like a thrown
		// gateway error.
		return s.failPeerTransfer(ctx, comp, transferTxn, ruTxn, ErrTransferRejected)
	}

	transferTxn.ExternalReference = result.Reference
	transferTxn.ExternalTransactionID = result.TransferCode
	if err := s.txns.Update(transferTxn); err != nil {
		return s.failPeerTransfer(ctx, comp, transferTxn, ruTxn, err)
	}

	s.metrics.RecordTransaction("peer_transfer", req.Amount+roundUpAmount)
	return &PeerTransferResult{
		Status:              StatusPending,
		TransferTransaction: transferTxn,
		RoundUpTransaction:  ruTxn,
		TotalCharged:        req.Amount + roundUpAmount,
		TransferCode:        result.TransferCode,
	}, nil
}

// applyRoundUpHeadroom fails fast when the base amount is not covered and
// silently drops the optional round-up when only the round-up is not.
func (s *service) applyRoundUpHeadroom(w *models.Wallet, amount, roundUpAmount int64) (int64, error) {
	if w.AvailableBalance < amount {
		return 0, ErrInsufficientFunds
	}
	if roundUpAmount > 0 && w.AvailableBalance < amount+roundUpAmount {
		s.logger.Info("round-up degraded to zero, insufficient headroom",
			zap.Uint("user_id", w.UserID),
			zap.Int64("amount", amount),
			zap.Int64("round_up", roundUpAmount))
		return 0, nil
	}
	return roundUpAmount, nil
}

func (s *service) initializeCheckout(ctx context.Context, req MerchantPaymentRequest, total int64) (*gateway.CheckoutSession, error) {
	gwCtx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	return s.gw.InitializeTransaction(gwCtx, gateway.InitializeRequest{
		Email:     req.Email,
		Amount:    total,
		Currency:  s.config.Currency,
		Reference: req.PaymentID,
		Metadata:  req.Metadata,
	})
}

func (s *service) resolveRecipientWithTimeout(ctx context.Context, req PeerTransferRequest) (string, error) {
	gwCtx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	return s.resolveRecipient(gwCtx, req)
}

func (s *service) initiateTransfer(ctx context.Context, req PeerTransferRequest, recipientCode string) (*gateway.TransferResult, error) {
	gwCtx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()
	return s.gw.InitiateTransfer(gwCtx, gateway.TransferRequest{
		Amount:        req.Amount,
		RecipientCode: recipientCode,
		Reference:     req.TransferID,
		Reason:        req.Reason,
		Currency:      s.config.Currency,
	})
}

func (s *service) buildRoundUpTransaction(userID uint, parent *models.Transaction, original, amount int64, rule string, now time.Time) *models.Transaction {
	return &models.Transaction{
		ID:          s.ids.NewID(),
		UserID:      userID,
		Type:        models.TransactionTypeRoundUp,
		Status:      models.TransactionStatusCompleted,
		Amount:      amount,
		Currency:    s.config.Currency,
		Description: "Round-up savings",
		RoundUp: models.RoundUpDetails{
			OriginalAmount:      original,
			RoundUpAmount:       amount,
			Rule:                rule,
			LinkedTransactionID: parent.ID,
		},
		CreatedAt: now,
	}
}

// reverseRoundUp is the logical inverse of TransferRoundUp: debit savings,
// credit main.
func (s *service) reverseRoundUp(ctx context.Context, userID uint, amount int64) error {
	if _, err := s.ledger.Debit(ctx, userID, models.WalletTypeSavings, amount); err != nil {
		return fmt.Errorf("debit savings: %w", err)
	}
	if _, err := s.ledger.Credit(ctx, userID, models.WalletTypeMain, amount); err != nil {
		return fmt.Errorf("credit main: %w", err)
	}
	return nil
}

func (s *service) failMerchantPayment(ctx context.Context, comp *compensationStack, payTxn, ruTxn *models.Transaction, cause error) (*MerchantPaymentResult, error) {
	s.logger.Warn("merchant payment failed, compensating",
		zap.String("transaction_id", payTxn.ID),
		zap.Error(cause))
	if err := comp.unwind(ctx); err != nil {
		// Money is stuck debited; the payment must not be reported failed.
		return nil, fmt.Errorf("%w: %v (cause: %v)", ErrCompensationFailed, err, cause)
	}

	s.markFailed(payTxn)
	if ruTxn != nil {
		s.markCancelled(ruTxn)
	}
	info := s.scheduleRetry(ctx, payTxn)
	s.metrics.RecordError("merchant_payment", "orchestration_failed")

	return &MerchantPaymentResult{
		Status:             StatusFailed,
		PaymentTransaction: payTxn,
		ScheduledRetry:     info,
	}, nil
}

func (s *service) failPeerTransfer(ctx context.Context, comp *compensationStack, transferTxn, ruTxn *models.Transaction, cause error) (*PeerTransferResult, error) {
	s.logger.Warn("peer transfer failed, compensating",
		zap.String("transaction_id", transferTxn.ID),
		zap.Error(cause))
	if err := comp.unwind(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v (cause: %v)", ErrCompensationFailed, err, cause)
	}

	s.markFailed(transferTxn)
	if ruTxn != nil {
		s.markCancelled(ruTxn)
	}
	info := s.scheduleRetry(ctx, transferTxn)
	s.metrics.RecordError("peer_transfer", "orchestration_failed")

	return &PeerTransferResult{
		Status:              StatusFailed,
		TransferTransaction: transferTxn,
		ScheduledRetry:      info,
	}, nil
}

func (s *service) markFailed(txn *models.Transaction) {
	txn.Status = models.TransactionStatusFailed
	if err := s.txns.Update(txn); err != nil {
		s.logger.Error("failed to mark transaction failed",
			zap.String("transaction_id", txn.ID),
			zap.Error(err))
	}
}

func (s *service) markCancelled(txn *models.Transaction) {
	txn.Status = models.TransactionStatusCancelled
	if err := s.txns.Update(txn); err != nil {
		s.logger.Error("failed to mark transaction cancelled",
			zap.String("transaction_id", txn.ID),
			zap.Error(err))
	}
}

func (s *service) scheduleRetry(ctx context.Context, txn *models.Transaction) *retry.Info {
	info, err := s.retries.ScheduleRetry(ctx, txn)
	if err != nil {
		s.logger.Error("failed to schedule retry",
			zap.String("transaction_id", txn.ID),
			zap.Error(err))
		return nil
	}
	return info
}

func validateMerchantRequest(req MerchantPaymentRequest) error {
	switch {
	case req.PaymentID == "":
		return fmt.Errorf("%w: missing payment id", ErrInvalidRequest)
	case req.UserID == 0:
		return fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case req.Email == "":
		return fmt.Errorf("%w: missing customer email", ErrInvalidRequest)
	}
	return nil
}

func validateTransferRequest(req PeerTransferRequest) error {
	switch {
	case req.TransferID == "":
		return fmt.Errorf("%w: missing transfer id", ErrInvalidRequest)
	case req.UserID == 0:
		return fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case req.RecipientPhone == "" && req.RecipientEmail == "":
		return fmt.Errorf("%w: missing transfer recipient", ErrInvalidRequest)
	case req.RecipientName == "":
		return fmt.Errorf("%w: missing recipient name", ErrInvalidRequest)
	}
	return nil
}
