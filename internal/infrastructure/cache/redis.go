// Package cache provides the Redis client and the Redis-backed locker used
// to serialize bookings across server instances.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"atelier/internal/core/apperror"
	"atelier/internal/core/lock"
	"atelier/pkg/logger"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 100
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Address, err)
	}
	return rdb, nil
}

// LockOptions tunes RedisLocker.
type LockOptions struct {
	// TTL bounds how long a crashed holder keeps the key.
	TTL time.Duration
	// Wait is how long to retry before giving up on a busy key.
	Wait time.Duration
	// RetryInterval between attempts while waiting.
	RetryInterval time.Duration
}

// DefaultLockOptions returns the production defaults.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		TTL:           30 * time.Second,
		Wait:          5 * time.Second,
		RetryInterval: 50 * time.Millisecond,
	}
}

// RedisLocker implements lock.Locker with redislock.
type RedisLocker struct {
	client *redislock.Client
	opts   LockOptions
}

// NewRedisLocker creates a locker on rdb.
func NewRedisLocker(rdb redislock.RedisClient, opts LockOptions) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), opts: opts}
}

var _ lock.Locker = (*RedisLocker)(nil)

// Key returns the Redis key guarding key.
func Key(key string) string {
	return "lock:" + key
}

// WithLock obtains the lock, runs fn and releases it. A key still busy
// after Wait yields ABORTED, so the client may retry.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.opts.Wait)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, Key(key), l.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.opts.RetryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewAborted(fmt.Errorf("lock %s busy: %w", key, err))
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "failed to release redis lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
