package service

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"

	"guestman/internal/customer/models"
	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/platform/tx"
	"guestman/pkg/requestcontext"
)

// Directory owns customer records and keeps the legacy phone and email
// fields in step with the primary contact points.
type Directory struct {
	customers CustomerStore
	contacts  ContactStore
	gates     ContactGates
	tx        tx.Runner
	options
}

// NewDirectory constructs a Directory.
func NewDirectory(customers CustomerStore, contacts ContactStore, g ContactGates, runner tx.Runner, opts ...Option) *Directory {
	return &Directory{
		customers: customers,
		contacts:  contacts,
		gates:     g,
		tx:        runner,
		options:   buildOptions(opts),
	}
}

// Get returns the active customer with code, or nil.
func (d *Directory) Get(ctx context.Context, code string) (*models.Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return activeOrNil(d.customers.FindByCode(ctx, code))
}

// GetByUUID returns the active customer with the given id, or nil.
func (d *Directory) GetByUUID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	return activeOrNil(d.customers.FindByID(ctx, customerID))
}

// GetByDocument looks a customer up by tax document; formatting is ignored.
func (d *Directory) GetByDocument(ctx context.Context, document string) (*models.Customer, error) {
	digits := contact.DigitsOnly(document)
	if digits == "" {
		return nil, nil
	}
	return activeOrNil(d.customers.FindByDocument(ctx, digits))
}

// GetByPhone reads the legacy phone field. Numbers stored before the
// country code was added are found by retrying without it.
func (d *Directory) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	normalized := d.normalizer.Phone(phone)
	if normalized == "" {
		return nil, nil
	}
	c, err := activeOrNil(d.customers.FindByPhone(ctx, normalized))
	if err != nil || c != nil {
		return c, err
	}
	if local, ok := strings.CutPrefix(normalized, contact.BrazilCountryCode); ok && local != "" {
		return activeOrNil(d.customers.FindByPhone(ctx, local))
	}
	return nil, nil
}

// GetByEmail reads the legacy email field.
func (d *Directory) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	normalized := contact.Email(email)
	if normalized == "" {
		return nil, nil
	}
	return activeOrNil(d.customers.FindByEmail(ctx, normalized))
}

// Search matches code, names, document, phone and email.
func (d *Directory) Search(ctx context.Context, q models.SearchQuery) ([]*models.Customer, error) {
	q.Normalize()
	if q.Query == "" {
		return []*models.Customer{}, nil
	}
	found, err := d.customers.Search(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search customers")
	}
	return found, nil
}

// Validate answers whether code names an active customer.
func (d *Directory) Validate(ctx context.Context, code string) (models.Validation, error) {
	c, err := d.Get(ctx, code)
	if err != nil {
		return models.Validation{}, err
	}
	if c == nil {
		return models.Validation{
			Code:      code,
			ErrorCode: models.ErrCodeCustomerNotFound,
			Message:   "Customer '" + code + "' not found",
		}, nil
	}
	return models.Validation{
		Valid:      true,
		Code:       c.Code,
		CustomerID: c.ID,
		Name:       c.Name(),
		Type:       c.Type,
	}, nil
}

// Create registers a customer and mirrors its phone and email as primary
// contact points. The code is derived from phone or email when not given.
func (d *Directory) Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	phone := d.normalizer.Phone(req.Phone)
	email := contact.Email(req.Email)

	code := req.Code
	switch {
	case code != "":
	case phone != "":
		code = models.CodeForIdentifier(models.IdentifierPhone, phone)
	case email != "":
		code = models.CodeForIdentifier(models.IdentifierEmail, email)
	default:
		code = models.GenerateCode(models.CodePrefixCustomer, uuid.NewString())
	}

	c, err := models.NewCustomer(id.New[id.CustomerID](), code, req.FirstName, req.Type, now)
	if err != nil {
		return nil, asValidation(err)
	}
	c.LastName = req.LastName
	c.Document = contact.DigitsOnly(req.Document)
	c.Phone = phone
	c.Email = email
	c.Notes = strings.TrimSpace(req.Notes)
	c.SourceSystem = strings.TrimSpace(req.SourceSystem)
	c.CreatedBy = requestcontext.Actor(ctx)
	for k, v := range req.Metadata {
		c.Metadata[k] = v
	}

	err = d.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := d.checkLegacyContacts(ctx, c); err != nil {
			return err
		}
		if err := d.customers.Create(ctx, c); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "customer code already exists: "+c.Code)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
		}
		return d.syncLegacyContacts(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	d.metrics.IncrementCustomersCreated()
	d.logger.InfoContext(ctx, "customer created",
		"customer_code", c.Code,
		"customer_id", c.ID,
		"source_system", c.SourceSystem,
	)
	d.publish(ctx, models.EventCustomerCreated, c, nil, c.CreatedBy, now)
	return c, nil
}

// Update applies the whitelisted fields of req. A customer_updated event is
// published only when at least one field changed.
func (d *Directory) Update(ctx context.Context, code string, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var updated *models.Customer
	var changes map[string]models.Change
	err := d.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := d.customers.FindByCodeForUpdate(ctx, code)
		if c, err = requireActive(c, err, code); err != nil {
			return err
		}
		changes = d.applyUpdate(c, req)
		if len(changes) == 0 {
			updated = c
			return nil
		}
		_, phoneChanged := changes["phone"]
		_, emailChanged := changes["email"]
		if phoneChanged || emailChanged {
			if err := d.checkLegacyContacts(ctx, c); err != nil {
				return err
			}
		}
		c.UpdatedAt = now
		if err := d.customers.Update(ctx, c); err != nil {
			return translate(err, "customer not found: "+code, "failed to update customer")
		}
		if phoneChanged || emailChanged {
			if err := d.syncLegacyContacts(ctx, c); err != nil {
				return err
			}
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		d.logger.InfoContext(ctx, "customer updated", "customer_code", updated.Code, "changed_fields", changedFields(changes))
		d.publish(ctx, models.EventCustomerUpdated, updated, changes, requestcontext.Actor(ctx), now)
	}
	return updated, nil
}

// Deactivate soft-deletes a customer. Its contact points and identifiers stay.
func (d *Directory) Deactivate(ctx context.Context, code string) (*models.Customer, error) {
	now := requestcontext.Now(ctx)
	var deactivated *models.Customer
	err := d.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := d.customers.FindByCodeForUpdate(ctx, code)
		if err != nil {
			return translate(err, "customer not found: "+code, "failed to load customer")
		}
		if err := c.CanDeactivate(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeConflict, "customer cannot be deactivated")
		}
		c.ApplyDeactivation(now)
		if err := d.customers.Update(ctx, c); err != nil {
			return translate(err, "customer not found: "+code, "failed to deactivate customer")
		}
		deactivated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.InfoContext(ctx, "customer deactivated", "customer_code", deactivated.Code)
	d.publish(ctx, models.EventCustomerUpdated, deactivated, map[string]models.Change{
		"is_active": {Old: true, New: false},
	}, requestcontext.Actor(ctx), now)
	return deactivated, nil
}

// applyUpdate mutates c and returns the changed fields.
func (d *Directory) applyUpdate(c *models.Customer, req *models.UpdateCustomerRequest) map[string]models.Change {
	changes := map[string]models.Change{}
	setString := func(field string, dst *string, src *string, normalize func(string) string) {
		if src == nil {
			return
		}
		v := normalize(*src)
		if v == *dst {
			return
		}
		changes[field] = models.Change{Old: *dst, New: v}
		*dst = v
	}
	setString("first_name", &c.FirstName, req.FirstName, strings.TrimSpace)
	setString("last_name", &c.LastName, req.LastName, strings.TrimSpace)
	setString("document", &c.Document, req.Document, contact.DigitsOnly)
	setString("phone", &c.Phone, req.Phone, d.normalizer.Phone)
	setString("email", &c.Email, req.Email, contact.Email)
	setString("notes", &c.Notes, req.Notes, strings.TrimSpace)
	setString("source_system", &c.SourceSystem, req.SourceSystem, strings.TrimSpace)

	if req.Type != nil && *req.Type != c.Type {
		changes["customer_type"] = models.Change{Old: c.Type, New: *req.Type}
		c.Type = *req.Type
	}
	if req.Metadata != nil && !reflect.DeepEqual(req.Metadata, c.Metadata) {
		changes["metadata"] = models.Change{Old: c.Metadata, New: req.Metadata}
		c.Metadata = req.Metadata
	}
	return changes
}

type legacyContact struct {
	kind  models.ContactType
	value string
}

func legacyContacts(c *models.Customer) []legacyContact {
	var out []legacyContact
	if c.Phone != "" {
		out = append(out, legacyContact{models.ContactTypePhone, c.Phone})
	}
	if c.Email != "" {
		out = append(out, legacyContact{models.ContactTypeEmail, c.Email})
	}
	return out
}

// checkLegacyContacts runs G1 for the legacy fields before any write.
func (d *Directory) checkLegacyContacts(ctx context.Context, c *models.Customer) error {
	for _, lc := range legacyContacts(c) {
		if _, err := d.gates.ContactPointUniqueness(ctx, lc.kind, lc.value, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// syncLegacyContacts makes the legacy phone and email the primary contact
// points of their type, creating them when missing.
func (d *Directory) syncLegacyContacts(ctx context.Context, c *models.Customer) error {
	now := requestcontext.Now(ctx)
	for _, lc := range legacyContacts(c) {
		siblings, err := d.contacts.ListByCustomerTypeForUpdate(ctx, c.ID, lc.kind)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock contact points")
		}
		var own *models.ContactPoint
		for _, cp := range siblings {
			if cp.ValueNormalized == lc.value {
				own = cp
			}
		}
		if own != nil && own.IsPrimary {
			continue
		}
		if err := d.contacts.DemotePrimary(ctx, c.ID, lc.kind); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to demote primary contact")
		}
		if own != nil {
			own.IsPrimary = true
			own.UpdatedAt = now
			if err := d.contacts.Update(ctx, own); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to promote contact point")
			}
			continue
		}
		cp, err := models.NewContactPoint(id.New[id.ContactPointID](), c.ID, lc.kind, lc.value, d.normalizer, now)
		if err != nil {
			return err
		}
		cp.IsPrimary = true
		if err := d.contacts.Create(ctx, cp); err != nil {
			return contactCreateError(ctx, d.gates, err, cp)
		}
	}
	return nil
}

// contactCreateError turns a lost uniqueness race into the G1 failure the
// winner caused.
func contactCreateError(ctx context.Context, g ContactGates, err error, cp *models.ContactPoint) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		if _, gateErr := g.ContactPointUniqueness(ctx, cp.Type, cp.ValueNormalized, cp.CustomerID); gateErr != nil {
			return gateErr
		}
		return dErrors.New(dErrors.CodeConflict, "contact point changed concurrently, retry")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact point")
}

func asValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid customer")
	}
	return err
}

func changedFields(changes map[string]models.Change) []string {
	return slices.Sorted(maps.Keys(changes))
}
