package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kobo/internal/gateway"
	"kobo/internal/models"
	"kobo/internal/services/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu        sync.Mutex
	balances  map[models.WalletType]int64
	creditErr error
	transfers []int64

	transferErr error
}

func newFakeLedger(mainBalance, savingsBalance int64) *fakeLedger {
	return &fakeLedger{
		balances: map[models.WalletType]int64{
			models.WalletTypeMain:    mainBalance,
			models.WalletTypeSavings: savingsBalance,
		},
	}
}

func (l *fakeLedger) snapshot(walletType models.WalletType) *models.Wallet {
	return &models.Wallet{
		UserID:           1,
		Type:             walletType,
		Balance:          l.balances[walletType],
		AvailableBalance: l.balances[walletType],
	}
}

func (l *fakeLedger) Credit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.creditErr != nil {
		return nil, l.creditErr
	}
	l.balances[walletType] += amount
	return l.snapshot(walletType), nil
}

func (l *fakeLedger) Debit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[walletType] < amount {
		return nil, ErrInsufficientFunds
	}
	l.balances[walletType] -= amount
	return l.snapshot(walletType), nil
}

func (l *fakeLedger) TransferRoundUp(ctx context.Context, userID uint, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.transferErr != nil {
		return l.transferErr
	}
	if l.balances[models.WalletTypeMain] < amount {
		return ErrInsufficientFunds
	}
	l.balances[models.WalletTypeMain] -= amount
	l.balances[models.WalletTypeSavings] += amount
	l.transfers = append(l.transfers, amount)
	return nil
}

func (l *fakeLedger) RequireWallet(ctx context.Context, userID uint, walletType models.WalletType) (*models.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot(walletType), nil
}

type fakeTxnStore struct {
	records    map[string]*models.Transaction
	createErrs map[int]error // keyed by 1-based call number
	updateErr  error
	creates    int
}

func newFakeTxnStore() *fakeTxnStore {
	return &fakeTxnStore{
		records:    make(map[string]*models.Transaction),
		createErrs: make(map[int]error),
	}
}

func (s *fakeTxnStore) Create(txn *models.Transaction) error {
	s.creates++
	if err := s.createErrs[s.creates]; err != nil {
		return err
	}
	cp := *txn
	s.records[txn.ID] = &cp
	return nil
}

func (s *fakeTxnStore) Update(txn *models.Transaction) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	cp := *txn
	s.records[txn.ID] = &cp
	return nil
}

func (s *fakeTxnStore) FindByID(id string) (*models.Transaction, error) {
	txn, ok := s.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return txn, nil
}

type fakeRuleStore struct {
	rule *models.RoundUpRule
	err  error
}

func (s *fakeRuleStore) FindByUserID(userID uint) (*models.RoundUpRule, error) {
	return s.rule, s.err
}

type fakeRetryScheduler struct {
	scheduled []*models.Transaction
	info      *retry.Info
	err       error
}

func (s *fakeRetryScheduler) ScheduleRetry(ctx context.Context, txn *models.Transaction) (*retry.Info, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.scheduled = append(s.scheduled, txn)
	return s.info, nil
}

type fakeGateway struct {
	initCalls     int
	initErr       error
	session       *gateway.CheckoutSession
	recipientCode string
	recipientErr  error
	transferCalls int
	transferErr   error
	result        *gateway.TransferResult
}

func (g *fakeGateway) InitializeTransaction(ctx context.Context, req gateway.InitializeRequest) (*gateway.CheckoutSession, error) {
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &gateway.CheckoutSession{
		AuthorizationURL: "https://checkout.example/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
		Status:           "pending",
	}, nil
}

func (g *fakeGateway) CreateTransferRecipient(ctx context.Context, req gateway.RecipientRequest) (string, error) {
	if g.recipientErr != nil {
		return "", g.recipientErr
	}
	if g.recipientCode != "" {
		return g.recipientCode, nil
	}
	return "RCP_test", nil
}

func (g *fakeGateway) InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	g.transferCalls++
	if g.transferErr != nil {
		return nil, g.transferErr
	}
	if g.result != nil {
		return g.result, nil
	}
	return &gateway.TransferResult{
		Status:       gateway.TransferStatusPending,
		TransferCode: "TRF_test",
		Reference:    req.Reference,
	}, nil
}

type seqIDs struct {
	n int
}

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("generated_%d", g.n)
}

type testClock struct {
	now time.Time
}

func (c testClock) Now() time.Time { return c.now }

type orchestratorFixture struct {
	ledger  *fakeLedger
	txns    *fakeTxnStore
	rules   *fakeRuleStore
	retries *fakeRetryScheduler
	gw      *fakeGateway
	service Service
}

func newFixture(mainBalance int64, rule *models.RoundUpRule) *orchestratorFixture {
	f := &orchestratorFixture{
		ledger:  newFakeLedger(mainBalance, 0),
		txns:    newFakeTxnStore(),
		rules:   &fakeRuleStore{rule: rule},
		retries: &fakeRetryScheduler{info: &retry.Info{RetryCount: 1}},
		gw:      &fakeGateway{},
	}
	f.service = NewService(
		f.ledger, f.gw, f.txns, f.rules, f.retries,
		testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)},
		&seqIDs{}, nil, nil,
		Config{Currency: "NGN"},
	)
	return f
}

func tensRule() *models.RoundUpRule {
	return &models.RoundUpRule{UserID: 1, IsEnabled: true, IncrementType: "10"}
}

func merchantRequest() MerchantPaymentRequest {
	return MerchantPaymentRequest{
		PaymentID:    "pay_abc",
		UserID:       1,
		Email:        "ada@example.com",
		MerchantName: "Corner Shop",
		Amount:       23450,
	}
}

func peerRequest() PeerTransferRequest {
	return PeerTransferRequest{
		TransferID:     "trf_abc",
		UserID:         1,
		Amount:         23450,
		Reason:         "lunch",
		RecipientName:  "Grace",
		RecipientPhone: "+2348012345678",
	}
}

func TestPayMerchant(t *testing.T) {
	ctx := context.Background()

	t.Run("charges the base amount plus the round-up", func(t *testing.T) {
		f := newFixture(100000, tensRule())

		res, err := f.service.PayMerchant(ctx, merchantRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusPending, res.Status)
		assert.Equal(t, int64(24000), res.TotalCharged)
		require.NotNil(t, res.CheckoutSession)
		assert.Equal(t, "pay_abc", res.CheckoutSession.Reference)

		// 23450 debited, 550 moved to savings.
		assert.Equal(t, int64(100000-24000), f.ledger.balances[models.WalletTypeMain])
		assert.Equal(t, int64(550), f.ledger.balances[models.WalletTypeSavings])

		payTxn := res.PaymentTransaction
		ruTxn := res.RoundUpTransaction
		require.NotNil(t, payTxn)
		require.NotNil(t, ruTxn)
		assert.Equal(t, "pay_abc", payTxn.ID)
		assert.Equal(t, models.TransactionStatusPending, payTxn.Status)
		assert.Equal(t, models.TransactionStatusCompleted, ruTxn.Status)
		assert.Equal(t, int64(550), ruTxn.Amount)

		// The two records reference each other.
		assert.Equal(t, ruTxn.ID, payTxn.RoundUp.LinkedTransactionID)
		assert.Equal(t, payTxn.ID, ruTxn.RoundUp.LinkedTransactionID)
		assert.Equal(t, "10", payTxn.RoundUp.Rule)

		// Session details persisted on the stored record.
		stored, err := f.txns.FindByID("pay_abc")
		require.NoError(t, err)
		assert.Equal(t, "pay_abc", stored.ExternalReference)
		assert.Equal(t, "ac_pay_abc", stored.AccessCode)
	})

	t.Run("no rule means no round-up transaction", func(t *testing.T) {
		f := newFixture(100000, nil)

		res, err := f.service.PayMerchant(ctx, merchantRequest())
		require.NoError(t, err)

		assert.Nil(t, res.RoundUpTransaction)
		assert.Equal(t, int64(23450), res.TotalCharged)
		assert.False(t, res.PaymentTransaction.HasRoundUp())
		assert.Empty(t, f.ledger.transfers)
	})

	t.Run("drops the round-up when headroom only covers the base amount", func(t *testing.T) {
		f := newFixture(23500, tensRule())

		res, err := f.service.PayMerchant(ctx, merchantRequest())
		require.NoError(t, err)

		assert.Nil(t, res.RoundUpTransaction)
		assert.Equal(t, int64(23450), res.TotalCharged)
		assert.Equal(t, int64(50), f.ledger.balances[models.WalletTypeMain])
		assert.Equal(t, int64(0), f.ledger.balances[models.WalletTypeSavings])
	})

	t.Run("fails fast before the gateway when the base amount is not covered", func(t *testing.T) {
		f := newFixture(10000, tensRule())

		_, err := f.service.PayMerchant(ctx, merchantRequest())
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Zero(t, f.gw.initCalls)
		assert.Equal(t, int64(10000), f.ledger.balances[models.WalletTypeMain])
	})

	t.Run("gateway failure before any mutation needs no compensation", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.gw.initErr = errors.New("gateway timeout")

		_, err := f.service.PayMerchant(ctx, merchantRequest())
		assert.ErrorContains(t, err, "failed to initialize checkout")
		assert.Equal(t, int64(100000), f.ledger.balances[models.WalletTypeMain])
		assert.Zero(t, f.txns.creates)
		assert.Empty(t, f.retries.scheduled)
	})

	t.Run("continues without round-up when the savings transfer fails", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.ledger.transferErr = errors.New("savings wallet locked")

		res, err := f.service.PayMerchant(ctx, merchantRequest())
		require.NoError(t, err)

		assert.Nil(t, res.RoundUpTransaction)
		assert.Equal(t, int64(23450), res.TotalCharged)
		assert.Equal(t, int64(100000-23450), f.ledger.balances[models.WalletTypeMain])
	})

	t.Run("persist failure compensates and surfaces the error", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.txns.createErrs[1] = errors.New("db down")

		_, err := f.service.PayMerchant(ctx, merchantRequest())
		assert.ErrorContains(t, err, "failed to persist payment transaction")

		// Debit and round-up transfer both rolled back.
		assert.Equal(t, int64(100000), f.ledger.balances[models.WalletTypeMain])
		assert.Equal(t, int64(0), f.ledger.balances[models.WalletTypeSavings])
	})

	t.Run("round-up persist failure yields a failed result with a retry", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.txns.createErrs[2] = errors.New("db down")

		res, err := f.service.PayMerchant(ctx, merchantRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, models.TransactionStatusFailed, res.PaymentTransaction.Status)
		require.NotNil(t, res.ScheduledRetry)
		assert.Equal(t, 1, res.ScheduledRetry.RetryCount)
		require.Len(t, f.retries.scheduled, 1)
		assert.Equal(t, "pay_abc", f.retries.scheduled[0].ID)

		assert.Equal(t, int64(100000), f.ledger.balances[models.WalletTypeMain])
		assert.Equal(t, int64(0), f.ledger.balances[models.WalletTypeSavings])
	})

	t.Run("compensation failure escalates instead of reporting failed", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.txns.createErrs[1] = errors.New("db down")
		f.ledger.creditErr = errors.New("wallet service down")

		_, err := f.service.PayMerchant(ctx, merchantRequest())
		assert.ErrorIs(t, err, ErrCompensationFailed)
		assert.Empty(t, f.retries.scheduled)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		f := newFixture(100000, nil)

		for name, req := range map[string]MerchantPaymentRequest{
			"missing payment id": {UserID: 1, Email: "a@b.c", Amount: 100},
			"missing user":       {PaymentID: "p", Email: "a@b.c", Amount: 100},
			"zero amount":        {PaymentID: "p", UserID: 1, Email: "a@b.c"},
			"missing email":      {PaymentID: "p", UserID: 1, Amount: 100},
		} {
			_, err := f.service.PayMerchant(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidRequest, name)
		}
	})
}

func TestTransferPeer(t *testing.T) {
	ctx := context.Background()

	t.Run("debits, transfers and records with round-up", func(t *testing.T) {
		f := newFixture(100000, tensRule())

		res, err := f.service.TransferPeer(ctx, peerRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusPending, res.Status)
		assert.Equal(t, int64(24000), res.TotalCharged)
		assert.Equal(t, "TRF_test", res.TransferCode)
		require.NotNil(t, res.RoundUpTransaction)

		assert.Equal(t, int64(100000-24000), f.ledger.balances[models.WalletTypeMain])
		assert.Equal(t, int64(550), f.ledger.balances[models.WalletTypeSavings])

		stored, err := f.txns.FindByID("trf_abc")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionTypeTransferOut, stored.Type)
		assert.Equal(t, "TRF_test", stored.ExternalTransactionID)
	})

	t.Run("recipient resolution failure needs no compensation", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.gw.recipientErr = errors.New("provider unavailable")

		_, err := f.service.TransferPeer(ctx, peerRequest())
		assert.ErrorContains(t, err, "resolve recipient")
		assert.Equal(t, int64(100000), f.ledger.balances[models.WalletTypeMain])
		assert.Zero(t, f.txns.creates)
	})

	t.Run("gateway-rejected transfer compensates and schedules a retry", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.gw.result = &gateway.TransferResult{Status: gateway.TransferStatusFailed}

		res, err := f.service.TransferPeer(ctx, peerRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, models.TransactionStatusFailed, res.TransferTransaction.Status)
		require.NotNil(t, res.ScheduledRetry)
		require.Len(t, f.retries.scheduled, 1)

		// Both the debit and the round-up transfer were reversed.
		assert.Equal(t, int64(100000), f.ledger.balances[models.WalletTypeMain])
		assert.Equal(t, int64(0), f.ledger.balances[models.WalletTypeSavings])

		// The companion round-up record was cancelled alongside.
		ru, err := f.txns.FindByID(res.TransferTransaction.RoundUp.LinkedTransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCancelled, ru.Status)
	})

	t.Run("transport failure on transfer behaves like a rejection", func(t *testing.T) {
		f := newFixture(100000, tensRule())
		f.gw.transferErr = errors.New("connection reset")

		res, err := f.service.TransferPeer(ctx, peerRequest())
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, int64(100000), f.ledger.balances[models.WalletTypeMain])
	})

	t.Run("rejects a recipient with neither phone nor email", func(t *testing.T) {
		f := newFixture(100000, nil)

		req := peerRequest()
		req.RecipientPhone = ""
		_, err := f.service.TransferPeer(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestPseudoAccountID(t *testing.T) {
	a := pseudoAccountID("Ada@Example.com ")
	b := pseudoAccountID("ada@example.com")
	c := pseudoAccountID("grace@example.com")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 18)
	assert.Equal(t, "KP", a[:2])
}
