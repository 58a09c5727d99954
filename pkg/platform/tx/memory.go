package tx

import (
	"context"
	"sync"
	"time"

	dErrors "guestman/pkg/domain-errors"
)

type memoryHeldKey struct{}

// Memory serializes units of work behind one lock for the in-memory stores.
// Writes are not rolled back when fn fails; callers order their writes so the
// last step is the one that may fail on a uniqueness check.
type Memory struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemory builds an in-memory Runner.
func NewMemory() *Memory {
	return &Memory{timeout: DefaultTimeout}
}

// RunInTx runs fn while holding the lock. Nested calls reuse the held lock.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if held, _ := ctx.Value(memoryHeldKey{}).(bool); held {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(context.WithValue(ctx, memoryHeldKey{}, true))
}
