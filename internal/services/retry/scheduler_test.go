package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"kobo/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeTransactionStore struct {
	updated   []*models.Transaction
	updateErr error
}

func (s *fakeTransactionStore) Create(txn *models.Transaction) error { return nil }

func (s *fakeTransactionStore) Update(txn *models.Transaction) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, txn)
	return nil
}

func (s *fakeTransactionStore) FindByID(id string) (*models.Transaction, error) {
	return nil, nil
}

func (s *fakeTransactionStore) FindByUserID(userID uint, limit, offset int) ([]models.Transaction, error) {
	return nil, nil
}

type fakeRetryQueue struct {
	jobs       []models.RetryJob
	enqueueErr error
}

func (q *fakeRetryQueue) Enqueue(ctx context.Context, job models.RetryJob) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestScheduleRetry(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("backoff grows per attempt and the budget is bounded", func(t *testing.T) {
		txns := &fakeTransactionStore{}
		queue := &fakeRetryQueue{}
		s := NewScheduler(nil, txns, queue, fixedClock{now: base}, nil)

		txn := &models.Transaction{ID: "pay_123", UserID: 1, RetryCount: 0}

		wantDelays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
		for i, delay := range wantDelays {
			info, err := s.ScheduleRetry(context.Background(), txn)
			require.NoError(t, err)
			require.NotNil(t, info)
			assert.Equal(t, i+1, info.RetryCount)
			assert.Equal(t, base.Add(delay), info.RunAt)
			assert.Equal(t, i+1, txn.RetryCount)
			require.NotNil(t, txn.NextRetryAt)
			assert.Equal(t, base.Add(delay), *txn.NextRetryAt)
		}

		// Fourth attempt exceeds the budget: no error, no scheduling.
		info, err := s.ScheduleRetry(context.Background(), txn)
		require.NoError(t, err)
		assert.Nil(t, info)
		assert.Equal(t, 3, txn.RetryCount)
		assert.Len(t, queue.jobs, 3)
	})

	t.Run("enqueued job carries id, run time and payload", func(t *testing.T) {
		txns := &fakeTransactionStore{}
		queue := &fakeRetryQueue{}
		s := NewScheduler(nil, txns, queue, fixedClock{now: base}, nil)

		txn := &models.Transaction{ID: "pay_456", UserID: 7, RetryCount: 0}
		_, err := s.ScheduleRetry(context.Background(), txn)
		require.NoError(t, err)

		require.Len(t, queue.jobs, 1)
		job := queue.jobs[0]
		assert.Equal(t, "retry_pay_456_1", job.ID)
		assert.Equal(t, base.Add(time.Second), job.RunAt)
		assert.Equal(t, "pay_456", job.Payload["transaction_id"])
		assert.Equal(t, uint(7), job.Payload["user_id"])
	})

	t.Run("custom backoff table overrides the default", func(t *testing.T) {
		backoff := []time.Duration{500 * time.Millisecond}
		txns := &fakeTransactionStore{}
		queue := &fakeRetryQueue{}
		s := NewScheduler(backoff, txns, queue, fixedClock{now: base}, nil)

		txn := &models.Transaction{ID: "pay_789", UserID: 1}
		info, err := s.ScheduleRetry(context.Background(), txn)
		require.NoError(t, err)
		assert.Equal(t, base.Add(500*time.Millisecond), info.RunAt)

		info, err = s.ScheduleRetry(context.Background(), txn)
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("persist failure propagates without enqueueing", func(t *testing.T) {
		txns := &fakeTransactionStore{updateErr: errors.New("db down")}
		queue := &fakeRetryQueue{}
		s := NewScheduler(nil, txns, queue, fixedClock{now: base}, nil)

		_, err := s.ScheduleRetry(context.Background(), &models.Transaction{ID: "pay_1", UserID: 1})
		assert.ErrorContains(t, err, "failed to persist retry metadata")
		assert.Empty(t, queue.jobs)
	})

	t.Run("enqueue failure propagates", func(t *testing.T) {
		txns := &fakeTransactionStore{}
		queue := &fakeRetryQueue{enqueueErr: errors.New("redis down")}
		s := NewScheduler(nil, txns, queue, fixedClock{now: base}, nil)

		_, err := s.ScheduleRetry(context.Background(), &models.Transaction{ID: "pay_2", UserID: 1})
		assert.ErrorContains(t, err, "failed to enqueue retry job")
	})
}
