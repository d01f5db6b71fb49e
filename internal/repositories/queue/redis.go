// Package queue provides the redis-backed delayed retry queue. Jobs are
// members of a sorted set scored by their run-at time; the retry worker pops
// members whose score has passed.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"kobo/internal/models"

	"github.com/redis/go-redis/v9"
)

const retryQueueKey = "retry:jobs"

// RedisQueue implements repositories.RetryQueue.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job models.RetryJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal retry job: %w", err)
	}
	err = q.client.ZAdd(ctx, retryQueueKey, redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue retry job: %w", err)
	}
	return nil
}
