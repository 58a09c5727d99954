// Package replay runs retention for the processed-event ledger.
package replay

import (
	"context"
	"log/slog"
	"time"
)

// Store is the processed-event ledger contract.
type Store interface {
	Record(ctx context.Context, nonce, provider string, at time.Time) error
	Exists(ctx context.Context, nonce string) (bool, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultRetention is how long processed nonces are kept.
const DefaultRetention = 90 * 24 * time.Hour

// Cleaner deletes processed events older than the retention horizon.
type Cleaner struct {
	store     Store
	retention time.Duration
	logger    *slog.Logger
	clock     func() time.Time
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

func WithLogger(logger *slog.Logger) CleanerOption {
	return func(c *Cleaner) {
		c.logger = logger
	}
}

func WithClock(clock func() time.Time) CleanerOption {
	return func(c *Cleaner) {
		c.clock = clock
	}
}

// NewCleaner constructs a Cleaner. Non-positive retention means DefaultRetention.
func NewCleaner(store Store, retention time.Duration, opts ...CleanerOption) *Cleaner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	c := &Cleaner{store: store, retention: retention, logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOnce deletes everything processed before now minus retention.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := c.clock().Add(-c.retention)
	deleted, err := c.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	c.logger.InfoContext(ctx, "processed events cleaned up", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// Start runs RunOnce every interval until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (c *Cleaner) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.RunOnce(ctx); err != nil {
				c.logger.ErrorContext(ctx, "processed event cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
