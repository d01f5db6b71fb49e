// Package retry schedules bounded-backoff retries for failed transactions.
// The scheduler only computes the next attempt and enqueues it; the worker
// consuming the retry queue performs the actual re-attempt.
package retry

import (
	"context"
	"fmt"
	"time"

	"kobo/internal/models"
	"kobo/internal/repositories"

	"go.uber.org/zap"
)

// DefaultBackoff is the fixed retry budget: one attempt per entry.
var DefaultBackoff = []time.Duration{
	1000 * time.Millisecond,
	2000 * time.Millisecond,
	4000 * time.Millisecond,
}

// Clock supplies the current time; injected so backoff scheduling is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// Info describes a scheduled retry attempt.
type Info struct {
	RunAt      time.Time `json:"run_at"`
	RetryCount int       `json:"retry_count"`
}

// Scheduler persists retry metadata on a transaction and enqueues the job.
type Scheduler interface {
	// ScheduleRetry returns nil when the retry budget is exhausted; no
	// further automatic action is taken in that case.
	ScheduleRetry(ctx context.Context, txn *models.Transaction) (*Info, error)
}

type scheduler struct {
	backoff []time.Duration
	txns    repositories.TransactionRepository
	queue   repositories.RetryQueue
	clock   Clock
	logger  *zap.Logger
}

// NewScheduler creates a retry scheduler. A nil backoff table falls back to
// DefaultBackoff.
func NewScheduler(
	backoff []time.Duration,
	txns repositories.TransactionRepository,
	queue repositories.RetryQueue,
	clock Clock,
	logger *zap.Logger,
) Scheduler {
	if txns == nil {
		panic("transaction repository is required")
	}
	if queue == nil {
		panic("retry queue is required")
	}
	if clock == nil {
		panic("clock is required")
	}
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &scheduler{
		backoff: backoff,
		txns:    txns,
		queue:   queue,
		clock:   clock,
		logger:  logger,
	}
}

func (s *scheduler) ScheduleRetry(ctx context.Context, txn *models.Transaction) (*Info, error) {
	if txn.RetryCount >= len(s.backoff) {
		s.logger.Warn("retry budget exhausted",
			zap.String("transaction_id", txn.ID),
			zap.Int("retry_count", txn.RetryCount))
		return nil, nil
	}

	delay := s.backoff[txn.RetryCount]
	now := s.clock.Now()
	runAt := now.Add(delay)

	txn.RetryCount++
	txn.LastRetryAt = &now
	txn.NextRetryAt = &runAt

	if err := s.txns.Update(txn); err != nil {
		return nil, fmt.Errorf("failed to persist retry metadata: %w", err)
	}

	job := models.RetryJob{
		ID:    fmt.Sprintf("retry_%s_%d", txn.ID, txn.RetryCount),
		RunAt: runAt,
		Payload: models.JSON{
			"transaction_id": txn.ID,
			"user_id":        txn.UserID,
		},
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue retry job: %w", err)
	}

	s.logger.Info("retry scheduled",
		zap.String("transaction_id", txn.ID),
		zap.Int("retry_count", txn.RetryCount),
		zap.Time("run_at", runAt))

	return &Info{RunAt: runAt, RetryCount: txn.RetryCount}, nil
}
