package identifier

import (
	"context"
	"sort"
	"sync"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

// ConstraintValue is the global unique key on (identifier_type, identifier_value).
const ConstraintValue = "uq_customer_identifiers_value"

// InMemory is a map-backed identifier store.
type InMemory struct {
	mu    sync.RWMutex
	byKey map[models.IdentifierKey]*models.Identifier
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[models.IdentifierKey]*models.Identifier)}
}

func (s *InMemory) Create(_ context.Context, ident *models.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.IdentifierKey{Type: ident.Type, Value: ident.Value}
	if _, taken := s.byKey[key]; taken {
		return &sentinel.ConstraintError{Constraint: ConstraintValue}
	}
	s.byKey[key] = ident.Clone()
	return nil
}

func (s *InMemory) Find(_ context.Context, t models.IdentifierType, value string) (*models.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byKey[models.IdentifierKey{Type: t, Value: value}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return ident.Clone(), nil
}

func (s *InMemory) FindMany(_ context.Context, keys []models.IdentifierKey) ([]*models.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Identifier
	for _, k := range keys {
		if ident, ok := s.byKey[k]; ok {
			out = append(out, ident.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.Identifier, error) {
	s.mu.RLock()
	var out []*models.Identifier
	for _, ident := range s.byKey {
		if ident.CustomerID == customerID {
			out = append(out, ident.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) DemotePrimary(_ context.Context, customerID id.CustomerID, t models.IdentifierType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ident := range s.byKey {
		if ident.CustomerID == customerID && ident.Type == t {
			ident.IsPrimary = false
		}
	}
	return nil
}
