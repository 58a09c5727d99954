package service

import (
	"context"
	"errors"
	"strings"

	"guestman/internal/customer/models"
	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/platform/tx"
	"guestman/pkg/requestcontext"
)

// Identifiers maps cross-channel identifiers to customers.
type Identifiers struct {
	customers   CustomerStore
	identifiers IdentifierStore
	tx          tx.Runner
	options
}

// NewIdentifiers constructs an Identifiers service.
func NewIdentifiers(customers CustomerStore, identifiers IdentifierStore, runner tx.Runner, opts ...Option) *Identifiers {
	return &Identifiers{
		customers:   customers,
		identifiers: identifiers,
		tx:          runner,
		options:     buildOptions(opts),
	}
}

// Find returns the identifier stored under (t, normalizedValue) or nil.
func (s *Identifiers) Find(ctx context.Context, t models.IdentifierType, normalizedValue string) (*models.Identifier, error) {
	ident, err := s.identifiers.Find(ctx, t, normalizedValue)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identifier")
	}
	return ident, nil
}

// Add attaches an identifier to an active customer. Re-adding one the
// customer owns is a no-op; one owned by another customer is a conflict.
// A primary identifier demotes the previous primary of its type.
func (s *Identifiers) Add(ctx context.Context, customerCode string, t models.IdentifierType, value string, primary bool, source string) (*models.Identifier, error) {
	normalized := s.normalizer.Normalize(value, t.Kind())
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identifier value is empty after normalization")
	}

	var result *models.Identifier
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		owner, err := s.customers.FindByCodeForUpdate(ctx, customerCode)
		if owner, err = requireActive(owner, err, customerCode); err != nil {
			return err
		}
		existing, err := s.Find(ctx, t, normalized)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.CustomerID != owner.ID {
				return dErrors.New(dErrors.CodeConflict, "identifier already belongs to another customer")
			}
			result = existing
			return nil
		}
		if primary {
			if err := s.identifiers.DemotePrimary(ctx, owner.ID, t); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to demote primary identifier")
			}
		}
		ident := &models.Identifier{
			ID:           id.New[id.IdentifierID](),
			CustomerID:   owner.ID,
			Type:         t,
			Value:        normalized,
			IsPrimary:    primary,
			SourceSystem: strings.TrimSpace(source),
			CreatedAt:    requestcontext.Now(ctx),
		}
		if err := s.identifiers.Create(ctx, ident); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "identifier already belongs to another customer")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identifier")
		}
		result = ident
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "identifier attached",
		"customer_code", customerCode,
		"type", t,
		"value", contact.Mask(t.Kind(), normalized),
	)
	return result, nil
}

// List returns the identifiers of an active customer.
func (s *Identifiers) List(ctx context.Context, customerCode string) ([]*models.Identifier, error) {
	owner, err := s.customers.FindByCode(ctx, customerCode)
	if owner, err = requireActive(owner, err, customerCode); err != nil {
		return nil, err
	}
	idents, err := s.identifiers.ListByCustomer(ctx, owner.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identifiers")
	}
	return idents, nil
}
