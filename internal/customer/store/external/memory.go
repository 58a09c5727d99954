package external

import (
	"context"
	"sort"
	"sync"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

// ConstraintProviderUID is the global unique key on (provider, provider_uid).
const ConstraintProviderUID = "uq_external_identities_provider_uid"

type providerKey struct {
	provider models.Provider
	uid      string
}

// InMemory is a map-backed external identity store.
type InMemory struct {
	mu    sync.RWMutex
	byKey map[providerKey]*models.ExternalIdentity
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{byKey: make(map[providerKey]*models.ExternalIdentity)}
}

func (s *InMemory) Create(_ context.Context, ext *models.ExternalIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := providerKey{ext.Provider, ext.ProviderUID}
	if _, taken := s.byKey[key]; taken {
		return &sentinel.ConstraintError{Constraint: ConstraintProviderUID}
	}
	s.byKey[key] = ext.Clone()
	return nil
}

func (s *InMemory) Update(_ context.Context, ext *models.ExternalIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := providerKey{ext.Provider, ext.ProviderUID}
	existing, ok := s.byKey[key]
	if !ok || existing.ID != ext.ID {
		return sentinel.ErrNotFound
	}
	s.byKey[key] = ext.Clone()
	return nil
}

func (s *InMemory) FindByProviderUID(_ context.Context, provider models.Provider, uid string) (*models.ExternalIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext, ok := s.byKey[providerKey{provider, uid}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return ext.Clone(), nil
}

func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.ExternalIdentity, error) {
	s.mu.RLock()
	var out []*models.ExternalIdentity
	for _, ext := range s.byKey {
		if ext.CustomerID == customerID {
			out = append(out, ext.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
