package identity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"guestman/internal/customer/models"
	"guestman/internal/identity/metrics"
	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/requestcontext"
)

// CustomFieldsKey is the metadata key holding bot custom fields.
const CustomFieldsKey = "bot_custom_fields"

// DefaultSource is the source system recorded for webhook syncs.
const DefaultSource = "bot"

type syncResult struct {
	customer *models.Customer
	created  bool
	changes  map[string]models.Change
}

// SyncSubscriber upserts the customer behind a bot subscriber. The customer is
// matched by subscriber id first and then by phone, email, WhatsApp,
// Instagram, Facebook and Telegram ids. Identifiers owned by another customer
// are left where they are.
func (r *Resolver) SyncSubscriber(ctx context.Context, sub Subscriber, source string) (*models.Customer, bool, error) {
	ctx, span := r.tracer.Start(ctx, "identity.SyncSubscriber")
	defer span.End()

	keys := sub.keys(r.normalizer)
	if keys.id == "" {
		return nil, false, dErrors.New(dErrors.CodeValidation, "subscriber id is required")
	}
	if source = strings.TrimSpace(source); source == "" {
		source = DefaultSource
	}
	span.SetAttributes(attribute.String("subscriber.source", source))

	var res syncResult
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		res, err = r.syncOnce(ctx, sub, keys, source)
		if !errors.Is(err, errLostRace) && !errors.Is(err, sentinel.ErrAlreadyUsed) {
			break
		}
		r.logger.DebugContext(ctx, "subscriber sync raced, retrying", "attempt", attempt+1)
	}
	if err != nil {
		r.fail(span, err)
		if _, ok := dErrors.CodeOf(err); ok {
			return nil, false, err
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync subscriber")
	}

	c := res.customer
	span.SetAttributes(attribute.String("customer.code", c.Code), attribute.Bool("customer.created", res.created))
	if res.created {
		r.metrics.IncrementResolved(metrics.OutcomeCreated)
		r.logger.InfoContext(ctx, "customer created from subscriber", "customer_code", c.Code, "source_system", source)
		r.publish(ctx, models.EventCustomerCreated, c, nil)
		return c, true, nil
	}
	r.metrics.IncrementResolved(metrics.OutcomeUpdated)
	if len(res.changes) > 0 {
		r.publish(ctx, models.EventCustomerUpdated, c, res.changes)
	}
	return c, false, nil
}

func (r *Resolver) syncOnce(ctx context.Context, sub Subscriber, keys subscriberKeys, source string) (syncResult, error) {
	matched, err := r.matchSubscriber(ctx, keys)
	if err != nil {
		return syncResult{}, err
	}

	var res syncResult
	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		var ownerID id.CustomerID
		if matched != nil {
			ownerID = matched.ID
		}
		legacyKeys, err := r.claimableLegacy(ctx, ownerID, keys)
		if err != nil {
			return err
		}

		var c *models.Customer
		if matched != nil {
			locked, err := r.stores.Customers.FindByCodeForUpdate(ctx, matched.Code)
			if err != nil {
				return fmt.Errorf("lock customer: %w", err)
			}
			if !locked.IsActive {
				return errLostRace
			}
			c = locked
			res.changes = fillEmpty(c, sub, legacyKeys)
			if len(res.changes) > 0 {
				c.UpdatedAt = requestcontext.Now(ctx)
				if err := r.stores.Customers.Update(ctx, c); err != nil {
					return fmt.Errorf("update customer: %w", err)
				}
			}
		} else {
			owner, err := r.findByIdentifier(ctx, models.IdentifierBot, keys.id)
			if err != nil {
				return err
			}
			if owner != nil {
				return errLostRace
			}
			if c, err = r.newSubscriberCustomer(ctx, sub, legacyKeys, source); err != nil {
				return err
			}
			if err := r.stores.Customers.Create(ctx, c); err != nil {
				return fmt.Errorf("create customer: %w", err)
			}
			res.created = true
		}
		res.customer = c

		if err := r.ensureExternal(ctx, c, sub, keys.id, source); err != nil {
			return err
		}
		for _, ki := range keys.identifiers() {
			if err := r.ensureIdentifier(ctx, c, ki, source); err != nil {
				return err
			}
		}
		for _, kc := range []struct {
			kind   models.ContactType
			value  string
			raw    string
			method models.VerificationMethod
		}{
			{models.ContactTypePhone, keys.phone, sub.Phone, models.VerificationUnverified},
			{models.ContactTypeEmail, keys.email, sub.Email, models.VerificationUnverified},
			{models.ContactTypeWhatsApp, keys.whatsapp, sub.WhatsApp, models.VerificationChannelAsserted},
		} {
			if kc.value == "" {
				continue
			}
			if err := r.ensureContact(ctx, c, kc.kind, kc.value, kc.raw, kc.method, keys.id); err != nil {
				return err
			}
		}
		return nil
	})
	return res, err
}

// claimableLegacy blanks the phone and email whose contact point belongs to
// a customer other than ownerID, so the legacy columns never point at a
// contact the customer does not own.
func (r *Resolver) claimableLegacy(ctx context.Context, ownerID id.CustomerID, keys subscriberKeys) (subscriberKeys, error) {
	for _, lc := range []struct {
		kind  models.ContactType
		value *string
	}{
		{models.ContactTypePhone, &keys.phone},
		{models.ContactTypeEmail, &keys.email},
	} {
		if *lc.value == "" {
			continue
		}
		cp, err := r.stores.Contacts.FindByValue(ctx, lc.kind, *lc.value)
		switch {
		case err == nil:
			if cp.CustomerID != ownerID {
				*lc.value = ""
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return keys, fmt.Errorf("find contact point: %w", err)
		}
	}
	return keys, nil
}

// matchSubscriber batches the identifier, contact point and external
// identity lookups, loads every owner in one call and returns the hit with
// the highest priority. Legacy phone and email columns are consulted only
// when no higher-priority key matched.
func (r *Resolver) matchSubscriber(ctx context.Context, keys subscriberKeys) (*models.Customer, error) {
	idents := keys.identifiers()
	identKeys := make([]models.IdentifierKey, 0, len(idents))
	var contactKeys []models.ContactKey
	for _, ki := range idents {
		identKeys = append(identKeys, models.IdentifierKey{Type: ki.kind, Value: ki.value})
		if ct, ok := ki.kind.ContactType(); ok {
			contactKeys = append(contactKeys, models.ContactKey{Type: ct, Value: ki.value})
		}
	}

	var (
		identRows   []*models.Identifier
		contactRows []*models.ContactPoint
		ext         *models.ExternalIdentity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.stores.Identifiers.FindMany(gctx, identKeys)
		if err != nil {
			return fmt.Errorf("match identifiers: %w", err)
		}
		identRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := r.stores.Contacts.FindByValues(gctx, contactKeys)
		if err != nil {
			return fmt.Errorf("match contact points: %w", err)
		}
		contactRows = rows
		return nil
	})
	g.Go(func() error {
		found, err := r.stores.Externals.FindByProviderUID(gctx, models.ProviderBot, keys.id)
		switch {
		case err == nil:
			if found.IsActive {
				ext = found
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return fmt.Errorf("match external identity: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	identOwner := make(map[models.IdentifierKey]id.CustomerID, len(identRows))
	ownerIDs := make([]id.CustomerID, 0, len(identRows)+len(contactRows)+1)
	for _, row := range identRows {
		identOwner[models.IdentifierKey{Type: row.Type, Value: row.Value}] = row.CustomerID
		ownerIDs = append(ownerIDs, row.CustomerID)
	}
	contactOwner := make(map[models.ContactKey]id.CustomerID, len(contactRows))
	for _, row := range contactRows {
		contactOwner[models.ContactKey{Type: row.Type, Value: row.ValueNormalized}] = row.CustomerID
		ownerIDs = append(ownerIDs, row.CustomerID)
	}
	if ext != nil {
		ownerIDs = append(ownerIDs, ext.CustomerID)
	}

	active, err := r.stores.Customers.FindActiveByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("load matched customers: %w", err)
	}

	for _, ki := range idents {
		if owner, ok := identOwner[models.IdentifierKey{Type: ki.kind, Value: ki.value}]; ok {
			if c := active[owner]; c != nil {
				return c, nil
			}
		}
		if ct, ok := ki.kind.ContactType(); ok {
			if owner, ok := contactOwner[models.ContactKey{Type: ct, Value: ki.value}]; ok {
				if c := active[owner]; c != nil {
					return c, nil
				}
			}
		}
		if ki.kind == models.IdentifierBot && ext != nil {
			if c := active[ext.CustomerID]; c != nil {
				return c, nil
			}
		}
		c, err := r.findLegacy(ctx, ki.kind, ki.value)
		if err != nil || c != nil {
			return c, err
		}
	}
	return nil, nil
}

func (r *Resolver) newSubscriberCustomer(ctx context.Context, sub Subscriber, keys subscriberKeys, source string) (*models.Customer, error) {
	c, err := models.NewCustomer(id.New[id.CustomerID](), models.CodeForSubscriber(keys.id), sub.FirstName, models.CustomerTypeIndividual, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	c.LastName = strings.TrimSpace(sub.LastName)
	c.Phone = keys.phone
	c.Email = keys.email
	c.SourceSystem = source
	c.CreatedBy = requestcontext.Actor(ctx)
	fields := maps.Clone(sub.CustomFields)
	if fields == nil {
		fields = map[string]any{}
	}
	c.Metadata[CustomFieldsKey] = fields
	return c, nil
}

// fillEmpty copies subscriber fields into empty customer fields only and
// merges custom fields into metadata.
func fillEmpty(c *models.Customer, sub Subscriber, keys subscriberKeys) map[string]models.Change {
	changes := map[string]models.Change{}
	fill := func(field string, dst *string, v string) {
		if v == "" || *dst != "" {
			return
		}
		changes[field] = models.Change{Old: "", New: v}
		*dst = v
	}
	fill("first_name", &c.FirstName, strings.TrimSpace(sub.FirstName))
	fill("last_name", &c.LastName, strings.TrimSpace(sub.LastName))
	fill("email", &c.Email, keys.email)
	fill("phone", &c.Phone, keys.phone)

	if len(sub.CustomFields) > 0 {
		current, _ := c.Metadata[CustomFieldsKey].(map[string]any)
		merged := maps.Clone(current)
		if merged == nil {
			merged = map[string]any{}
		}
		maps.Copy(merged, sub.CustomFields)
		if !reflect.DeepEqual(current, merged) {
			if c.Metadata == nil {
				c.Metadata = map[string]any{}
			}
			changes["metadata"] = models.Change{Old: current, New: merged}
			c.Metadata[CustomFieldsKey] = merged
		}
	}
	return changes
}

func (r *Resolver) ensureExternal(ctx context.Context, c *models.Customer, sub Subscriber, uid, source string) error {
	meta := map[string]any{"source_system": source}
	if tag := strings.TrimSpace(sub.InstagramTag); tag != "" {
		meta["ig_username"] = tag
	}
	now := requestcontext.Now(ctx)

	ext, err := r.stores.Externals.FindByProviderUID(ctx, models.ProviderBot, uid)
	switch {
	case err == nil:
		if ext.CustomerID != c.ID {
			r.logger.DebugContext(ctx, "external identity owned by another customer", "provider", models.ProviderBot)
			return nil
		}
		merged := maps.Clone(ext.ProviderMeta)
		if merged == nil {
			merged = map[string]any{}
		}
		maps.Copy(merged, meta)
		if reflect.DeepEqual(merged, ext.ProviderMeta) && ext.IsActive {
			return nil
		}
		ext.ProviderMeta = merged
		ext.IsActive = true
		ext.UpdatedAt = now
		if err := r.stores.Externals.Update(ctx, ext); err != nil {
			return fmt.Errorf("update external identity: %w", err)
		}
		return nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return fmt.Errorf("find external identity: %w", err)
	}

	if err := r.stores.Externals.Create(ctx, &models.ExternalIdentity{
		ID:           id.New[id.ExternalIdentityID](),
		CustomerID:   c.ID,
		Provider:     models.ProviderBot,
		ProviderUID:  uid,
		ProviderMeta: meta,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return fmt.Errorf("create external identity: %w", err)
	}
	return nil
}

// ensureIdentifier is lookup-or-create on the global (type, value) key.
func (r *Resolver) ensureIdentifier(ctx context.Context, c *models.Customer, ki keyedIdentifier, source string) error {
	existing, err := r.stores.Identifiers.Find(ctx, ki.kind, ki.value)
	switch {
	case err == nil:
		if existing.CustomerID != c.ID {
			r.logger.DebugContext(ctx, "identifier owned by another customer", "identifier_type", ki.kind)
		}
		return nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return fmt.Errorf("find identifier: %w", err)
	}

	if ki.primary {
		if err := r.stores.Identifiers.DemotePrimary(ctx, c.ID, ki.kind); err != nil {
			return fmt.Errorf("demote identifier: %w", err)
		}
	}
	if err := r.stores.Identifiers.Create(ctx, &models.Identifier{
		ID:           id.New[id.IdentifierID](),
		CustomerID:   c.ID,
		Type:         ki.kind,
		Value:        ki.value,
		IsPrimary:    ki.primary,
		SourceSystem: source,
		CreatedAt:    requestcontext.Now(ctx),
	}); err != nil {
		return fmt.Errorf("create identifier: %w", err)
	}
	return nil
}

// ensureContact attaches a contact point unless another customer owns the
// normalized value. raw is kept as the display form. The first contact of a
// type becomes primary.
func (r *Resolver) ensureContact(ctx context.Context, c *models.Customer, t models.ContactType, value, raw string, method models.VerificationMethod, ref string) error {
	now := requestcontext.Now(ctx)
	existing, err := r.stores.Contacts.FindByValue(ctx, t, value)
	switch {
	case err == nil:
		if existing.CustomerID != c.ID {
			r.logger.DebugContext(ctx, "contact point owned by another customer",
				"type", t, "value", contact.Mask(t.Kind(), value))
			return nil
		}
		if method == models.VerificationUnverified || existing.IsVerified {
			return nil
		}
		if _, err := r.gates.VerifiedTransition(method); err != nil {
			return err
		}
		existing.ApplyVerification(method, ref, now)
		if err := r.stores.Contacts.Update(ctx, existing); err != nil {
			return fmt.Errorf("verify contact point: %w", err)
		}
		return nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return fmt.Errorf("find contact point: %w", err)
	}

	siblings, err := r.stores.Contacts.ListByCustomerTypeForUpdate(ctx, c.ID, t)
	if err != nil {
		return fmt.Errorf("lock contact points: %w", err)
	}
	cp, err := models.NewContactPoint(id.New[id.ContactPointID](), c.ID, t, raw, r.normalizer, now)
	if err != nil {
		return err
	}
	cp.IsPrimary = true
	for _, sibling := range siblings {
		if sibling.IsPrimary {
			cp.IsPrimary = false
		}
	}
	if method != models.VerificationUnverified {
		if _, err := r.gates.VerifiedTransition(method); err != nil {
			return err
		}
		cp.ApplyVerification(method, ref, now)
	}
	if err := r.stores.Contacts.Create(ctx, cp); err != nil {
		return fmt.Errorf("create contact point: %w", err)
	}
	return nil
}
