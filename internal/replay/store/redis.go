package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guestman/pkg/platform/sentinel"
)

const nonceKeyPrefix = "guestman:nonce:"

// RedisStore keeps processed nonces as keys with a TTL equal to the retention
// horizon, so expiry replaces explicit cleanup.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets how long a nonce is remembered.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedis constructs a Redis-backed ledger. The default TTL is 90 days.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, ttl: 90 * 24 * time.Hour}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record uses SET NX so the first writer wins across instances.
func (s *RedisStore) Record(ctx context.Context, nonce, provider string, _ time.Time) error {
	ok, err := s.client.SetNX(ctx, nonceKeyPrefix+nonce, provider, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("record nonce: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, nonce string) (bool, error) {
	n, err := s.client.Exists(ctx, nonceKeyPrefix+nonce).Result()
	if err != nil {
		return false, fmt.Errorf("check nonce: %w", err)
	}
	return n > 0, nil
}

// DeleteBefore is a no-op: keys expire on their own.
func (s *RedisStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}
