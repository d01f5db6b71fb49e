package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"go.uber.org/zap"
)

type service struct {
	repo    repositories.WalletRepository
	cache   repositories.CacheRepository
	locks   *lockTable
	metrics MetricsCollector
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates the wallet ledger service.
func NewService(
	repo repositories.WalletRepository,
	cache repositories.CacheRepository,
	metrics MetricsCollector,
	logger *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &service{
		repo:    repo,
		cache:   cache,
		locks:   newLockTable(),
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) Credit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	defer s.timeOperation("credit")()

	w, err := s.mutate(ctx, userID, walletType, "credit", func(w *models.Wallet) error {
		w.Balance += amount
		w.AvailableBalance += amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransaction("credit", amount)
	return w, nil
}

func (s *service) Debit(ctx context.Context, userID uint, walletType models.WalletType, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	defer s.timeOperation("debit")()

	w, err := s.mutate(ctx, userID, walletType, "debit", func(w *models.Wallet) error {
		if w.AvailableBalance < amount {
			return ErrInsufficientFunds
		}
		w.Balance -= amount
		w.AvailableBalance -= amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransaction("debit", amount)
	return w, nil
}

// TransferRoundUp debits main and credits savings in one repository
// transaction. Locks are taken in fixed main-then-savings order so two
// concurrent transfers for the same user cannot deadlock.
func (s *service) TransferRoundUp(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	defer s.timeOperation("transfer_round_up")()

	mainLock := s.locks.acquire(lockKey(userID, models.WalletTypeMain))
	mainLock.Lock()
	defer mainLock.Unlock()
	savingsLock := s.locks.acquire(lockKey(userID, models.WalletTypeSavings))
	savingsLock.Lock()
	defer savingsLock.Unlock()

	for attempt := 0; attempt < saveAttempts; attempt++ {
		main, err := s.findWallet(userID, models.WalletTypeMain)
		if err != nil {
			return err
		}
		savings, err := s.findWallet(userID, models.WalletTypeSavings)
		if err != nil {
			return err
		}

		if main.AvailableBalance < amount {
			s.metrics.RecordError("transfer_round_up", "insufficient_funds")
			return ErrInsufficientFunds
		}

		now := s.now()
		main.Balance -= amount
		main.AvailableBalance -= amount
		main.LastTransactionAt = &now
		main.UpdatedAt = now
		savings.Balance += amount
		savings.AvailableBalance += amount
		savings.LastTransactionAt = &now
		savings.UpdatedAt = now

		if err := main.CheckInvariants(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariantViolated, err)
		}
		if err := savings.CheckInvariants(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariantViolated, err)
		}

		// Both legs commit or neither does.
		err = s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
			if err := tx.Save(main); err != nil {
				return err
			}
			return tx.Save(savings)
		})
		if errors.Is(err, repositories.ErrStaleWallet) {
			continue
		}
		if err != nil {
			s.metrics.RecordError("transfer_round_up", "save_failed")
			return fmt.Errorf("failed to transfer round-up: %w", err)
		}

		s.invalidate(ctx, userID, models.WalletTypeMain)
		s.invalidate(ctx, userID, models.WalletTypeSavings)
		s.metrics.RecordTransaction("round_up", amount)
		return nil
	}

	s.metrics.RecordError("transfer_round_up", "version_conflict")
	return repositories.ErrStaleWallet
}

func (s *service) RequireWallet(ctx context.Context, userID uint, walletType models.WalletType) (*models.Wallet, error) {
	if w, err := s.cache.GetWallet(ctx, userID, walletType); err == nil {
		return w, nil
	}

	w, err := s.findWallet(userID, walletType)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetWallet(ctx, w); err != nil {
		s.logger.Debug("failed to cache wallet", zap.Uint("user_id", userID), zap.Error(err))
	}
	return w, nil
}

func (s *service) CreateWallet(ctx context.Context, userID uint, walletType models.WalletType, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	w := &models.Wallet{
		UserID:   userID,
		Type:     walletType,
		Currency: currency,
		Status:   StatusActive,
	}
	if err := s.repo.Create(w); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if err := s.cache.SetWallet(ctx, w); err != nil {
		s.logger.Debug("failed to cache wallet", zap.Uint("user_id", userID), zap.Error(err))
	}
	return w, nil
}

// mutate runs one serialized read-modify-write cycle on a wallet. It holds
// the wallet's lock for the duration and transparently reloads on a version
// conflict from another process.
func (s *service) mutate(ctx context.Context, userID uint, walletType models.WalletType, op string, apply func(*models.Wallet) error) (*models.Wallet, error) {
	lock := s.locks.acquire(lockKey(userID, walletType))
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; attempt < saveAttempts; attempt++ {
		w, err := s.findWallet(userID, walletType)
		if err != nil {
			return nil, err
		}

		if err := apply(w); err != nil {
			s.metrics.RecordError(op, errType(err))
			return nil, err
		}

		now := s.now()
		w.LastTransactionAt = &now
		w.UpdatedAt = now

		if err := w.CheckInvariants(); err != nil {
			s.metrics.RecordError(op, "invariant_violated")
			return nil, fmt.Errorf("%w: %v", ErrInvariantViolated, err)
		}

		err = s.repo.Save(w)
		if errors.Is(err, repositories.ErrStaleWallet) {
			continue
		}
		if err != nil {
			s.metrics.RecordError(op, "save_failed")
			return nil, fmt.Errorf("failed to save wallet: %w", err)
		}

		s.invalidate(ctx, userID, walletType)
		return w, nil
	}

	s.metrics.RecordError(op, "version_conflict")
	return nil, repositories.ErrStaleWallet
}

func (s *service) findWallet(userID uint, walletType models.WalletType) (*models.Wallet, error) {
	w, err := s.repo.FindByUserAndType(userID, walletType)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (s *service) invalidate(ctx context.Context, userID uint, walletType models.WalletType) {
	if err := s.cache.InvalidateWallet(ctx, userID, walletType); err != nil {
		s.logger.Warn("failed to invalidate wallet cache",
			zap.Uint("user_id", userID),
			zap.String("wallet_type", string(walletType)),
			zap.Error(err))
	}
}

func (s *service) timeOperation(op string) func() {
	start := s.now()
	return func() {
		s.metrics.RecordOperationDuration(op, time.Since(start))
	}
}

func errType(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}
