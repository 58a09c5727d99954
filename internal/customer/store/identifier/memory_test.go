package identifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

type IdentifierStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestIdentifierStoreSuite(t *testing.T) {
	suite.Run(t, new(IdentifierStoreSuite))
}

func (s *IdentifierStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newIdentifier(customer id.CustomerID, t models.IdentifierType, value string) *models.Identifier {
	return &models.Identifier{
		ID:         id.New[id.IdentifierID](),
		CustomerID: customer,
		Type:       t,
		Value:      value,
		CreatedAt:  time.Now(),
	}
}

func (s *IdentifierStoreSuite) TestGlobalUniqueness() {
	a := id.New[id.CustomerID]()
	b := id.New[id.CustomerID]()
	s.Require().NoError(s.store.Create(s.ctx, newIdentifier(a, models.IdentifierBot, "sub-1")))

	err := s.store.Create(s.ctx, newIdentifier(b, models.IdentifierBot, "sub-1"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	s.Equal(ConstraintValue, sentinel.Constraint(err))

	s.NoError(s.store.Create(s.ctx, newIdentifier(b, models.IdentifierTelegram, "sub-1")))
}

func (s *IdentifierStoreSuite) TestLookups() {
	customer := id.New[id.CustomerID]()
	primary := newIdentifier(customer, models.IdentifierPhone, "5511999887766")
	primary.IsPrimary = true
	s.Require().NoError(s.store.Create(s.ctx, primary))
	s.Require().NoError(s.store.Create(s.ctx, newIdentifier(customer, models.IdentifierEmail, "ana@example.com")))

	found, err := s.store.Find(s.ctx, models.IdentifierPhone, "5511999887766")
	s.Require().NoError(err)
	s.Equal(customer, found.CustomerID)

	_, err = s.store.Find(s.ctx, models.IdentifierPhone, "000")
	s.ErrorIs(err, sentinel.ErrNotFound)

	many, err := s.store.FindMany(s.ctx, []models.IdentifierKey{
		{Type: models.IdentifierEmail, Value: "ana@example.com"},
		{Type: models.IdentifierInstagram, Value: "nobody"},
	})
	s.Require().NoError(err)
	s.Len(many, 1)

	list, err := s.store.ListByCustomer(s.ctx, customer)
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.store.DemotePrimary(s.ctx, customer, models.IdentifierPhone))
	found, err = s.store.Find(s.ctx, models.IdentifierPhone, "5511999887766")
	s.Require().NoError(err)
	s.False(found.IsPrimary)
}
