// Package identity resolves one customer across phone, email, social and
// chat-bot identifiers, creating the customer when none matches.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"guestman/internal/customer/models"
	"guestman/internal/events"
	"guestman/internal/gates"
	"guestman/internal/identity/metrics"
	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/platform/tx"
	"guestman/pkg/requestcontext"
)

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	Update(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindActiveByIDs(ctx context.Context, ids []id.CustomerID) (map[id.CustomerID]*models.Customer, error)
}

type ContactStore interface {
	Create(ctx context.Context, cp *models.ContactPoint) error
	Update(ctx context.Context, cp *models.ContactPoint) error
	FindByValue(ctx context.Context, t models.ContactType, value string) (*models.ContactPoint, error)
	FindByValues(ctx context.Context, keys []models.ContactKey) ([]*models.ContactPoint, error)
	ListByCustomerTypeForUpdate(ctx context.Context, customerID id.CustomerID, t models.ContactType) ([]*models.ContactPoint, error)
}

type IdentifierStore interface {
	Create(ctx context.Context, ident *models.Identifier) error
	Find(ctx context.Context, t models.IdentifierType, value string) (*models.Identifier, error)
	FindMany(ctx context.Context, keys []models.IdentifierKey) ([]*models.Identifier, error)
	DemotePrimary(ctx context.Context, customerID id.CustomerID, t models.IdentifierType) error
}

type ExternalStore interface {
	Create(ctx context.Context, ext *models.ExternalIdentity) error
	Update(ctx context.Context, ext *models.ExternalIdentity) error
	FindByProviderUID(ctx context.Context, provider models.Provider, uid string) (*models.ExternalIdentity, error)
}

// Gates is the subset of the gates engine the resolver runs.
type Gates interface {
	ContactPointUniqueness(ctx context.Context, t models.ContactType, value string, exclude id.CustomerID) (gates.Result, error)
	VerifiedTransition(method models.VerificationMethod) (gates.Result, error)
}

// Stores groups the persistence the resolver writes through.
type Stores struct {
	Customers   CustomerStore
	Contacts    ContactStore
	Identifiers IdentifierStore
	Externals   ExternalStore
}

// errLostRace reports that a concurrent writer claimed the identifier first.
var errLostRace = errors.New("identifier claimed concurrently")

// Resolver implements identifier lookup, find-or-create and subscriber sync.
type Resolver struct {
	stores     Stores
	gates      Gates
	tx         tx.Runner
	normalizer *contact.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	events     events.Sink
	tracer     trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithNormalizer(n *contact.Normalizer) Option {
	return func(r *Resolver) {
		r.normalizer = n
	}
}

// WithEventSink publishes customer_created and customer_updated for resolver writes.
func WithEventSink(sink events.Sink) Option {
	return func(r *Resolver) {
		r.events = sink
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = tracer
	}
}

// New constructs a Resolver.
func New(stores Stores, g Gates, runner tx.Runner, opts ...Option) *Resolver {
	r := &Resolver{
		stores:     stores,
		gates:      g,
		tx:         runner,
		normalizer: contact.Default(),
		logger:     slog.Default(),
		tracer:     otel.Tracer("guestman/identity"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Defaults seeds a customer created by FindOrCreateCustomer.
type Defaults struct {
	Code         string
	FirstName    string
	LastName     string
	Type         models.CustomerType
	Metadata     map[string]any
	SourceSystem string
}

// FindByIdentifier returns the active customer owning (t, raw), or nil. The
// identifier table is consulted first, then contact points, bot external
// identities and finally the legacy phone and email columns.
func (r *Resolver) FindByIdentifier(ctx context.Context, t models.IdentifierType, raw string) (*models.Customer, error) {
	ctx, span := r.tracer.Start(ctx, "identity.FindByIdentifier",
		trace.WithAttributes(attribute.String("identifier.type", string(t))))
	defer span.End()

	normalized := r.normalizer.Normalize(raw, t.Kind())
	if normalized == "" {
		return nil, nil
	}
	c, err := r.findByIdentifier(ctx, t, normalized)
	if err != nil {
		r.fail(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identifier")
	}
	if c == nil {
		r.metrics.IncrementResolved(metrics.OutcomeNotFound)
		return nil, nil
	}
	r.metrics.IncrementResolved(metrics.OutcomeFound)
	span.SetAttributes(attribute.String("customer.code", c.Code))
	return c, nil
}

func (r *Resolver) findByIdentifier(ctx context.Context, t models.IdentifierType, normalized string) (*models.Customer, error) {
	ident, err := r.stores.Identifiers.Find(ctx, t, normalized)
	switch {
	case err == nil:
		c, err := r.activeOwner(ctx, ident.CustomerID)
		if err != nil || c != nil {
			return c, err
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, fmt.Errorf("find identifier: %w", err)
	}

	if ct, ok := t.ContactType(); ok {
		cp, err := r.stores.Contacts.FindByValue(ctx, ct, normalized)
		switch {
		case err == nil:
			c, err := r.activeOwner(ctx, cp.CustomerID)
			if err != nil || c != nil {
				return c, err
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, fmt.Errorf("find contact point: %w", err)
		}
	}

	if t == models.IdentifierBot {
		ext, err := r.stores.Externals.FindByProviderUID(ctx, models.ProviderBot, normalized)
		switch {
		case err == nil && ext.IsActive:
			c, err := r.activeOwner(ctx, ext.CustomerID)
			if err != nil || c != nil {
				return c, err
			}
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return nil, fmt.Errorf("find external identity: %w", err)
		}
	}

	return r.findLegacy(ctx, t, normalized)
}

// findLegacy falls back to the customer's cached phone and email columns.
// Phones are retried without the country code for pre-normalization rows.
func (r *Resolver) findLegacy(ctx context.Context, t models.IdentifierType, normalized string) (*models.Customer, error) {
	switch t {
	case models.IdentifierPhone:
		c, err := legacy(r.stores.Customers.FindByPhone(ctx, normalized))
		if err != nil || c != nil {
			return c, err
		}
		if local, ok := strings.CutPrefix(normalized, contact.BrazilCountryCode); ok && local != "" {
			return legacy(r.stores.Customers.FindByPhone(ctx, local))
		}
	case models.IdentifierEmail:
		return legacy(r.stores.Customers.FindByEmail(ctx, normalized))
	}
	return nil, nil
}

// activeOwner loads the owner of a row; inactive owners resolve to nil.
func (r *Resolver) activeOwner(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	c, err := r.stores.Customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if !c.IsActive {
		return nil, nil
	}
	return c, nil
}

func legacy(c *models.Customer, err error) (*models.Customer, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find customer by legacy field: %w", err)
	}
	return c, nil
}

// FindOrCreateCustomer resolves (t, raw) or creates a customer owning it as
// its primary identifier. Losing a concurrent create resolves to the winner.
func (r *Resolver) FindOrCreateCustomer(ctx context.Context, t models.IdentifierType, raw string, defaults Defaults) (*models.Customer, bool, error) {
	ctx, span := r.tracer.Start(ctx, "identity.FindOrCreateCustomer",
		trace.WithAttributes(attribute.String("identifier.type", string(t))))
	defer span.End()

	normalized := r.normalizer.Normalize(raw, t.Kind())
	if normalized == "" {
		return nil, false, dErrors.New(dErrors.CodeValidation, "identifier value is empty after normalization")
	}
	c, err := r.findByIdentifier(ctx, t, normalized)
	if err != nil {
		r.fail(span, err)
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identifier")
	}
	if c != nil {
		r.metrics.IncrementResolved(metrics.OutcomeFound)
		return c, false, nil
	}

	c, err = r.createForIdentifier(ctx, t, normalized, raw, defaults)
	if errors.Is(err, errLostRace) || errors.Is(err, sentinel.ErrAlreadyUsed) {
		winner, findErr := r.findByIdentifier(ctx, t, normalized)
		if findErr == nil && winner != nil {
			r.metrics.IncrementResolved(metrics.OutcomeFound)
			return winner, false, nil
		}
		r.fail(span, err)
		return nil, false, dErrors.Wrap(err, dErrors.CodeConflict, "customer could not be created")
	}
	if err != nil {
		r.fail(span, err)
		if _, ok := gates.AsGateError(err); ok {
			return nil, false, err
		}
		if _, ok := dErrors.CodeOf(err); ok {
			return nil, false, err
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
	}

	r.metrics.IncrementResolved(metrics.OutcomeCreated)
	span.SetAttributes(attribute.String("customer.code", c.Code), attribute.Bool("customer.created", true))
	r.logger.InfoContext(ctx, "customer created from identifier",
		"customer_code", c.Code,
		"identifier_type", t,
		"identifier_value", contact.Mask(t.Kind(), normalized),
	)
	r.publish(ctx, models.EventCustomerCreated, c, nil)
	return c, true, nil
}

// createForIdentifier creates the customer and its identifier. raw becomes
// the display form of the mirrored contact point.
func (r *Resolver) createForIdentifier(ctx context.Context, t models.IdentifierType, normalized, raw string, defaults Defaults) (*models.Customer, error) {
	now := requestcontext.Now(ctx)
	code := strings.TrimSpace(defaults.Code)
	if code == "" {
		code = models.CodeForIdentifier(t, normalized)
	}
	c, err := models.NewCustomer(id.New[id.CustomerID](), code, defaults.FirstName, defaults.Type, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid customer defaults")
	}
	c.LastName = strings.TrimSpace(defaults.LastName)
	c.SourceSystem = defaults.SourceSystem
	c.CreatedBy = requestcontext.Actor(ctx)
	for k, v := range defaults.Metadata {
		c.Metadata[k] = v
	}
	switch t {
	case models.IdentifierPhone:
		c.Phone = normalized
	case models.IdentifierEmail:
		c.Email = normalized
	}
	ct, isContact := t.ContactType()

	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := r.stores.Identifiers.Find(ctx, t, normalized); err == nil {
			return errLostRace
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("find identifier: %w", err)
		}
		if isContact {
			if _, err := r.gates.ContactPointUniqueness(ctx, ct, normalized, c.ID); err != nil {
				return err
			}
		}
		if err := r.stores.Customers.Create(ctx, c); err != nil {
			return fmt.Errorf("create customer: %w", err)
		}
		if err := r.stores.Identifiers.Create(ctx, &models.Identifier{
			ID:           id.New[id.IdentifierID](),
			CustomerID:   c.ID,
			Type:         t,
			Value:        normalized,
			IsPrimary:    true,
			SourceSystem: defaults.SourceSystem,
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("create identifier: %w", err)
		}
		if isContact {
			cp, err := models.NewContactPoint(id.New[id.ContactPointID](), c.ID, ct, raw, r.normalizer, now)
			if err != nil {
				return err
			}
			cp.IsPrimary = true
			if err := r.stores.Contacts.Create(ctx, cp); err != nil {
				return fmt.Errorf("create contact point: %w", err)
			}
		}
		if t == models.IdentifierBot {
			if err := r.stores.Externals.Create(ctx, &models.ExternalIdentity{
				ID:          id.New[id.ExternalIdentityID](),
				CustomerID:  c.ID,
				Provider:    models.ProviderBot,
				ProviderUID: normalized,
				IsActive:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}); err != nil {
				return fmt.Errorf("create external identity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Resolver) fail(span trace.Span, err error) {
	r.metrics.IncrementResolved(metrics.OutcomeError)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (r *Resolver) publish(ctx context.Context, kind models.EventKind, c *models.Customer, changes map[string]models.Change) {
	if r.events == nil {
		return
	}
	event := models.Event{
		ID:         events.NewID(),
		Kind:       kind,
		CustomerID: c.ID,
		Code:       c.Code,
		Changes:    changes,
		Actor:      requestcontext.Actor(ctx),
		OccurredAt: requestcontext.Now(ctx),
	}
	if err := r.events.Publish(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "customer event not published", "kind", kind, "customer_code", c.Code, "error", err)
	}
}
