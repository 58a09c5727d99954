// Package service implements the customer directory, contact point and
// identifier operations on top of the stores and gates.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"guestman/internal/customer/models"
	"guestman/internal/events"
	"guestman/internal/gates"
	"guestman/internal/platform/metrics"
	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CustomerStore,ContactStore,IdentifierStore,ContactGates

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	Update(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	FindByCode(ctx context.Context, code string) (*models.Customer, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*models.Customer, error)
	FindByDocument(ctx context.Context, document string) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Search(ctx context.Context, q models.SearchQuery) ([]*models.Customer, error)
}

type ContactStore interface {
	Create(ctx context.Context, cp *models.ContactPoint) error
	Update(ctx context.Context, cp *models.ContactPoint) error
	FindByID(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error)
	FindByIDForUpdate(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error)
	FindByValue(ctx context.Context, t models.ContactType, value string) (*models.ContactPoint, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.ContactPoint, error)
	ListByCustomerTypeForUpdate(ctx context.Context, customerID id.CustomerID, t models.ContactType) ([]*models.ContactPoint, error)
	DemotePrimary(ctx context.Context, customerID id.CustomerID, t models.ContactType) error
}

type IdentifierStore interface {
	Create(ctx context.Context, ident *models.Identifier) error
	Find(ctx context.Context, t models.IdentifierType, value string) (*models.Identifier, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Identifier, error)
	DemotePrimary(ctx context.Context, customerID id.CustomerID, t models.IdentifierType) error
}

// ContactGates is the gate subset guarding contact point writes.
type ContactGates interface {
	ContactPointUniqueness(ctx context.Context, t models.ContactType, value string, exclude id.CustomerID) (gates.Result, error)
	PrimaryInvariant(ctx context.Context, customerID id.CustomerID, t models.ContactType) (gates.Result, error)
	VerifiedTransition(method models.VerificationMethod) (gates.Result, error)
}

type options struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	events     events.Sink
	normalizer *contact.Normalizer
}

// Option configures the services in this package.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithEventSink sets where customer_created and customer_updated go.
func WithEventSink(sink events.Sink) Option {
	return func(o *options) {
		o.events = sink
	}
}

// WithNormalizer sets the region-aware contact normalizer.
func WithNormalizer(n *contact.Normalizer) Option {
	return func(o *options) {
		o.normalizer = n
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:     slog.Default(),
		normalizer: contact.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// publish hands an event to the sink after the write committed.
func (o options) publish(ctx context.Context, kind models.EventKind, c *models.Customer, changes map[string]models.Change, actor string, now time.Time) {
	if o.events == nil {
		return
	}
	event := models.Event{
		ID:         events.NewID(),
		Kind:       kind,
		CustomerID: c.ID,
		Code:       c.Code,
		Changes:    changes,
		Actor:      actor,
		OccurredAt: now,
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.WarnContext(ctx, "customer event not published", "kind", kind, "customer_code", c.Code, "error", err)
	}
}

// passThrough reports whether err is already a caller-facing error.
func passThrough(err error) bool {
	if _, ok := gates.AsGateError(err); ok {
		return true
	}
	_, ok := dErrors.CodeOf(err)
	return ok
}

// translate maps store errors to domain errors. Gate and domain errors pass through.
func translate(err error, notFound, internal string) error {
	if err == nil || passThrough(err) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}

// activeOrNil implements the read-path rule: absent or inactive is nil, nil.
func activeOrNil(c *models.Customer, err error) (*models.Customer, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	if !c.IsActive {
		return nil, nil
	}
	return c, nil
}

// requireActive implements the write-path rule: absent or inactive is a named error.
func requireActive(c *models.Customer, err error, code string) (*models.Customer, error) {
	c, err = activeOrNil(c, err)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "customer not found: "+code)
	}
	return c, nil
}
