// Package gates holds the invariant checks G1 to G6. Each gate either passes
// or returns a *GateError carrying the gate name and structured details; each
// has a Check* variant that reports a bool instead.
package gates

import (
	"context"
	"log/slog"
	"time"

	"guestman/internal/customer/models"
	"guestman/internal/gates/metrics"
	"guestman/pkg/contact"
	id "guestman/pkg/domain"
)

//go:generate mockgen -source=engine.go -destination=mocks/mocks.go -package=mocks ContactLookup,CustomerLookup,ReplayLedger

// ContactLookup is the read side of the contact point store used by G1 and G2.
type ContactLookup interface {
	FindByValue(ctx context.Context, t models.ContactType, value string) (*models.ContactPoint, error)
	CountPrimary(ctx context.Context, customerID id.CustomerID, t models.ContactType) (int, error)
}

// CustomerLookup resolves the owner of a conflicting contact for G1 details.
type CustomerLookup interface {
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
}

// ReplayLedger is the processed-event store behind G5.
type ReplayLedger interface {
	Record(ctx context.Context, nonce, provider string, at time.Time) error
	Exists(ctx context.Context, nonce string) (bool, error)
}

// DefaultMaxAge bounds webhook timestamp freshness.
const DefaultMaxAge = 300 * time.Second

// Engine evaluates gates against the current store state.
type Engine struct {
	contacts   ContactLookup
	customers  CustomerLookup
	ledger     ReplayLedger
	normalizer *contact.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	clock      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithNormalizer sets the normalizer applied to G1 values.
func WithNormalizer(n *contact.Normalizer) Option {
	return func(e *Engine) {
		e.normalizer = n
	}
}

// WithClock overrides the clock used for G4 timestamp freshness.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New constructs an Engine. Any store may be nil when the caller only
// evaluates the gates that do not need it.
func New(contacts ContactLookup, customers CustomerLookup, ledger ReplayLedger, opts ...Option) *Engine {
	e := &Engine{
		contacts:   contacts,
		customers:  customers,
		ledger:     ledger,
		normalizer: contact.Default(),
		logger:     slog.Default(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// observe records the outcome of one evaluation and passes err through.
func (e *Engine) observe(gate Name, err error) error {
	outcome := metrics.OutcomePass
	if err != nil {
		outcome = metrics.OutcomeError
		if _, ok := AsGateError(err); ok {
			outcome = metrics.OutcomeFail
		}
	}
	e.metrics.IncrementOutcome(string(gate), outcome)
	return err
}

// check collapses a gate evaluation to a bool. Infrastructure errors are
// logged since they are not gate decisions.
func (e *Engine) check(ctx context.Context, gate Name, err error) bool {
	if err == nil {
		return true
	}
	if _, ok := AsGateError(err); !ok {
		e.logger.ErrorContext(ctx, "gate evaluation failed", "gate", gate, "error", err)
	}
	return false
}
