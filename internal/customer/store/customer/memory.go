package customer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

// InMemory is a map-backed customer store for tests and dev mode.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[id.CustomerID]*models.Customer
	byCode map[string]id.CustomerID
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[id.CustomerID]*models.Customer),
		byCode: make(map[string]id.CustomerID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byCode[c.Code]; exists {
		return &sentinel.ConstraintError{Constraint: ConstraintCode}
	}
	if _, exists := s.byID[c.ID]; exists {
		return &sentinel.ConstraintError{Constraint: "customers_pkey"}
	}
	s.byID[c.ID] = c.Clone()
	s.byCode[c.Code] = c.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Code != c.Code {
		if _, taken := s.byCode[c.Code]; taken {
			return &sentinel.ConstraintError{Constraint: ConstraintCode}
		}
		delete(s.byCode, existing.Code)
		s.byCode[c.Code] = c.ID
	}
	s.byID[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[customerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) FindByCode(_ context.Context, code string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customerID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[customerID].Clone(), nil
}

// FindByCodeForUpdate has no locking of its own; the memory tx runner serializes writers.
func (s *InMemory) FindByCodeForUpdate(ctx context.Context, code string) (*models.Customer, error) {
	return s.FindByCode(ctx, code)
}

func (s *InMemory) FindByDocument(_ context.Context, document string) (*models.Customer, error) {
	return s.findFirstActive(func(c *models.Customer) bool { return c.Document == document })
}

func (s *InMemory) FindByPhone(_ context.Context, phone string) (*models.Customer, error) {
	return s.findFirstActive(func(c *models.Customer) bool { return c.Phone == phone })
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Customer, error) {
	email = strings.ToLower(email)
	return s.findFirstActive(func(c *models.Customer) bool { return strings.ToLower(c.Email) == email })
}

// findFirstActive returns the oldest active match so results are deterministic.
func (s *InMemory) findFirstActive(match func(*models.Customer) bool) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Customer
	for _, c := range s.byID {
		if !c.IsActive || !match(c) {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return found.Clone(), nil
}

func (s *InMemory) Search(_ context.Context, q models.SearchQuery) ([]*models.Customer, error) {
	needle := strings.ToLower(q.Query)
	s.mu.RLock()
	var out []*models.Customer
	for _, c := range s.byID {
		if q.OnlyActive && !c.IsActive {
			continue
		}
		if needle != "" && !matchesSearch(c, needle) {
			continue
		}
		out = append(out, c.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesSearch(c *models.Customer, needle string) bool {
	for _, field := range []string{c.Code, c.FirstName, c.LastName, c.Document, c.Phone, c.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *InMemory) FindActiveByIDs(_ context.Context, ids []id.CustomerID) (map[id.CustomerID]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.CustomerID]*models.Customer, len(ids))
	for _, customerID := range ids {
		if c, ok := s.byID[customerID]; ok && c.IsActive {
			out[customerID] = c.Clone()
		}
	}
	return out, nil
}
