package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/fekuna/omnipos-challan-service/internal/apperror"
)

// Locker hands out short-lived mutual exclusion across service instances.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(ctx context.Context), err error)
}

type RedisLocker struct {
	client  *redislock.Client
	retries int
	backoff time.Duration
}

func NewRedisLocker(c *RedisClient) *RedisLocker {
	return &RedisLocker{
		client:  redislock.New(c.Client),
		retries: 3,
		backoff: 50 * time.Millisecond,
	}
}

// Obtain fails with apperror.ErrConflict when the key stays held through every retry.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.Conflict("obtain lock "+key, err)
	}
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) {
		_ = lock.Release(ctx)
	}, nil
}

// NoopLocker is used when the store already serializes writers, as the memory store does.
type NoopLocker struct{}

func (NoopLocker) Obtain(context.Context, string, time.Duration) (func(ctx context.Context), error) {
	return func(context.Context) {}, nil
}
