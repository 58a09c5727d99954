package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestman/pkg/platform/sentinel"
)

func TestInMemoryLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewInMemory()
	now := time.Now()

	seen, err := ledger.Exists(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen, "exists never records")
	seen, err = ledger.Exists(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, ledger.Record(ctx, "evt-1", "bot", now))
	assert.ErrorIs(t, ledger.Record(ctx, "evt-1", "other", now), sentinel.ErrAlreadyUsed)

	seen, err = ledger.Exists(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestInMemoryLedgerConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	ledger := NewInMemory()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var replayCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Record(ctx, "evt-race", "bot", time.Now())
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				replayCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load())
	assert.Equal(t, int32(goroutines-1), replayCount.Load())
}
