package service

import (
	"context"
	"errors"
	"strings"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/platform/tx"
	"guestman/pkg/requestcontext"
)

// Contacts manages contact points. Every write runs G1 or G3 first and
// leaves at most one primary per customer and type.
type Contacts struct {
	customers CustomerStore
	contacts  ContactStore
	gates     ContactGates
	tx        tx.Runner
	options
}

// NewContacts constructs a Contacts service.
func NewContacts(customers CustomerStore, contacts ContactStore, g ContactGates, runner tx.Runner, opts ...Option) *Contacts {
	return &Contacts{
		customers: customers,
		contacts:  contacts,
		gates:     g,
		tx:        runner,
		options:   buildOptions(opts),
	}
}

// Add attaches a contact point to an active customer. Adding a value the
// customer already owns returns the existing row.
func (s *Contacts) Add(ctx context.Context, req *models.AddContactRequest) (*models.ContactPoint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var added *models.ContactPoint
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		owner, err := s.customers.FindByCodeForUpdate(ctx, req.CustomerCode)
		if owner, err = requireActive(owner, err, req.CustomerCode); err != nil {
			return err
		}
		cp, err := models.NewContactPoint(id.New[id.ContactPointID](), owner.ID, req.Type, req.Value, s.normalizer, now)
		if err != nil {
			return err
		}
		if _, err := s.gates.ContactPointUniqueness(ctx, cp.Type, cp.ValueNormalized, owner.ID); err != nil {
			return err
		}

		siblings, err := s.contacts.ListByCustomerTypeForUpdate(ctx, owner.ID, cp.Type)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock contact points")
		}
		hasPrimary := false
		for _, sibling := range siblings {
			if sibling.ValueNormalized == cp.ValueNormalized {
				added = sibling
			}
			hasPrimary = hasPrimary || sibling.IsPrimary
		}
		if added != nil {
			if req.Primary && !added.IsPrimary {
				return s.promote(ctx, owner, added)
			}
			return nil
		}

		cp.IsPrimary = req.Primary || !hasPrimary
		if cp.IsPrimary && hasPrimary {
			if err := s.contacts.DemotePrimary(ctx, owner.ID, cp.Type); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to demote primary contact")
			}
		}
		if err := s.contacts.Create(ctx, cp); err != nil {
			return contactCreateError(ctx, s.gates, err, cp)
		}
		if cp.IsPrimary {
			if err := s.refreshLegacyCache(ctx, owner, cp); err != nil {
				return err
			}
		}
		added = cp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contact point added",
		"customer_code", req.CustomerCode,
		"type", added.Type,
		"value", added.Masked(),
		"is_primary", added.IsPrimary,
	)
	return added, nil
}

// SetPrimary makes the contact point the primary of its type.
func (s *Contacts) SetPrimary(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error) {
	var target *models.ContactPoint
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		target, err = s.contacts.FindByIDForUpdate(ctx, contactID)
		if err != nil {
			return translate(err, "contact point not found", "failed to load contact point")
		}
		owner, err := s.customers.FindByID(ctx, target.CustomerID)
		if owner, err = requireActive(owner, err, target.CustomerID.String()); err != nil {
			return err
		}
		if target.IsPrimary {
			return nil
		}
		if _, err := s.contacts.ListByCustomerTypeForUpdate(ctx, owner.ID, target.Type); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock contact points")
		}
		return s.promote(ctx, owner, target)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "primary contact changed",
		"customer_id", target.CustomerID,
		"type", target.Type,
		"value", target.Masked(),
	)
	return target, nil
}

// promote demotes the current primary of cp's type, promotes cp and checks
// G2. The caller holds the row locks.
func (s *Contacts) promote(ctx context.Context, owner *models.Customer, cp *models.ContactPoint) error {
	if err := s.contacts.DemotePrimary(ctx, owner.ID, cp.Type); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to demote primary contact")
	}
	cp.IsPrimary = true
	cp.UpdatedAt = requestcontext.Now(ctx)
	if err := s.contacts.Update(ctx, cp); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "primary contact changed concurrently, retry")
		}
		return translate(err, "contact point not found", "failed to promote contact point")
	}
	if err := s.refreshLegacyCache(ctx, owner, cp); err != nil {
		return err
	}
	_, err := s.gates.PrimaryInvariant(ctx, owner.ID, cp.Type)
	return err
}

// refreshLegacyCache copies a new primary phone or email into the customer row.
func (s *Contacts) refreshLegacyCache(ctx context.Context, owner *models.Customer, cp *models.ContactPoint) error {
	var field *string
	switch cp.Type {
	case models.ContactTypePhone:
		field = &owner.Phone
	case models.ContactTypeEmail:
		field = &owner.Email
	default:
		return nil
	}
	if *field == cp.ValueNormalized {
		return nil
	}
	*field = cp.ValueNormalized
	owner.UpdatedAt = requestcontext.Now(ctx)
	if err := s.customers.Update(ctx, owner); err != nil {
		return translate(err, "customer not found", "failed to update customer contact cache")
	}
	return nil
}

// MarkVerified records a verification after G3 accepts the method. An empty
// ref keeps the previous one.
func (s *Contacts) MarkVerified(ctx context.Context, contactID id.ContactPointID, method models.VerificationMethod, ref string) (*models.ContactPoint, error) {
	if _, err := s.gates.VerifiedTransition(method); err != nil {
		return nil, err
	}
	var verified *models.ContactPoint
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cp, err := s.contacts.FindByIDForUpdate(ctx, contactID)
		if err != nil {
			return translate(err, "contact point not found", "failed to load contact point")
		}
		ref = strings.TrimSpace(ref)
		if ref == "" {
			ref = cp.VerificationRef
		}
		cp.ApplyVerification(method, ref, requestcontext.Now(ctx))
		if err := s.contacts.Update(ctx, cp); err != nil {
			return translate(err, "contact point not found", "failed to verify contact point")
		}
		verified = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "contact point verified", "type", verified.Type, "value", verified.Masked(), "method", method)
	return verified, nil
}

// List returns the contact points of an active customer, primaries first.
func (s *Contacts) List(ctx context.Context, customerCode string) ([]*models.ContactPoint, error) {
	owner, err := s.customers.FindByCode(ctx, customerCode)
	if owner, err = requireActive(owner, err, customerCode); err != nil {
		return nil, err
	}
	cps, err := s.contacts.ListByCustomer(ctx, owner.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contact points")
	}
	return cps, nil
}

// FindByValue normalizes value and returns the matching contact point or nil.
func (s *Contacts) FindByValue(ctx context.Context, t models.ContactType, value string) (*models.ContactPoint, error) {
	normalized := s.normalizer.Normalize(value, t.Kind())
	if normalized == "" {
		return nil, nil
	}
	cp, err := s.contacts.FindByValue(ctx, t, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up contact point")
	}
	return cp, nil
}
