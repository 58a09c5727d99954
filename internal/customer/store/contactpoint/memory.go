package contactpoint

import (
	"context"
	"sort"
	"sync"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

// Unique constraints mirrored by both stores.
const (
	ConstraintValue   = "uq_contact_points_value"
	ConstraintPrimary = "uq_contact_points_primary"
)

type primaryKey struct {
	customer id.CustomerID
	kind     models.ContactType
}

// InMemory enforces the same two uniqueness rules as the Postgres schema.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.ContactPointID]*models.ContactPoint
	byValue map[models.ContactKey]id.ContactPointID
	primary map[primaryKey]id.ContactPointID
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.ContactPointID]*models.ContactPoint),
		byValue: make(map[models.ContactKey]id.ContactPointID),
		primary: make(map[primaryKey]id.ContactPointID),
	}
}

func keyOf(cp *models.ContactPoint) models.ContactKey {
	return models.ContactKey{Type: cp.Type, Value: cp.ValueNormalized}
}

func (s *InMemory) Create(_ context.Context, cp *models.ContactPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byValue[keyOf(cp)]; taken {
		return &sentinel.ConstraintError{Constraint: ConstraintValue}
	}
	pk := primaryKey{cp.CustomerID, cp.Type}
	if cp.IsPrimary {
		if _, taken := s.primary[pk]; taken {
			return &sentinel.ConstraintError{Constraint: ConstraintPrimary}
		}
		s.primary[pk] = cp.ID
	}
	s.byID[cp.ID] = cp.Clone()
	s.byValue[keyOf(cp)] = cp.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, cp *models.ContactPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[cp.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if keyOf(existing) != keyOf(cp) {
		if _, taken := s.byValue[keyOf(cp)]; taken {
			return &sentinel.ConstraintError{Constraint: ConstraintValue}
		}
	}
	pk := primaryKey{cp.CustomerID, cp.Type}
	if cp.IsPrimary {
		if holder, taken := s.primary[pk]; taken && holder != cp.ID {
			return &sentinel.ConstraintError{Constraint: ConstraintPrimary}
		}
	}

	delete(s.byValue, keyOf(existing))
	oldPK := primaryKey{existing.CustomerID, existing.Type}
	if s.primary[oldPK] == cp.ID {
		delete(s.primary, oldPK)
	}
	s.byValue[keyOf(cp)] = cp.ID
	if cp.IsPrimary {
		s.primary[pk] = cp.ID
	}
	s.byID[cp.ID] = cp.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, contactID id.ContactPointID) (*models.ContactPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.byID[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cp.Clone(), nil
}

func (s *InMemory) FindByIDForUpdate(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error) {
	return s.FindByID(ctx, contactID)
}

func (s *InMemory) FindByValue(_ context.Context, t models.ContactType, value string) (*models.ContactPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contactID, ok := s.byValue[models.ContactKey{Type: t, Value: value}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[contactID].Clone(), nil
}

func (s *InMemory) FindByValues(_ context.Context, keys []models.ContactKey) ([]*models.ContactPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ContactPoint
	for _, k := range keys {
		if contactID, ok := s.byValue[k]; ok {
			out = append(out, s.byID[contactID].Clone())
		}
	}
	return out, nil
}

func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.ContactPoint, error) {
	s.mu.RLock()
	var out []*models.ContactPoint
	for _, cp := range s.byID {
		if cp.CustomerID == customerID {
			out = append(out, cp.Clone())
		}
	}
	s.mu.RUnlock()
	sortContacts(out)
	return out, nil
}

func (s *InMemory) ListByCustomerTypeForUpdate(_ context.Context, customerID id.CustomerID, t models.ContactType) ([]*models.ContactPoint, error) {
	s.mu.RLock()
	var out []*models.ContactPoint
	for _, cp := range s.byID {
		if cp.CustomerID == customerID && cp.Type == t {
			out = append(out, cp.Clone())
		}
	}
	s.mu.RUnlock()
	sortContacts(out)
	return out, nil
}

func (s *InMemory) DemotePrimary(_ context.Context, customerID id.CustomerID, t models.ContactType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := primaryKey{customerID, t}
	if holder, ok := s.primary[pk]; ok {
		s.byID[holder].IsPrimary = false
		delete(s.primary, pk)
	}
	return nil
}

// CountPrimary counts rows rather than trusting the primary index, so a
// corrupted state would still be reported.
func (s *InMemory) CountPrimary(_ context.Context, customerID id.CustomerID, t models.ContactType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, cp := range s.byID {
		if cp.CustomerID == customerID && cp.Type == t && cp.IsPrimary {
			n++
		}
	}
	return n, nil
}

func sortContacts(cps []*models.ContactPoint) {
	sort.Slice(cps, func(i, j int) bool {
		if cps[i].Type != cps[j].Type {
			return cps[i].Type < cps[j].Type
		}
		if cps[i].IsPrimary != cps[j].IsPrimary {
			return cps[i].IsPrimary
		}
		return cps[i].CreatedAt.Before(cps[j].CreatedAt)
	})
}
