package contactpoint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

type ContactStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	customer id.CustomerID
}

func TestContactStoreSuite(t *testing.T) {
	suite.Run(t, new(ContactStoreSuite))
}

func (s *ContactStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.customer = id.New[id.CustomerID]()
}

func (s *ContactStoreSuite) newContact(customer id.CustomerID, t models.ContactType, value string, primary bool) *models.ContactPoint {
	cp, err := models.NewContactPoint(id.New[id.ContactPointID](), customer, t, value, nil, time.Now())
	s.Require().NoError(err)
	cp.IsPrimary = primary
	return cp
}

func (s *ContactStoreSuite) TestValueUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newContact(s.customer, models.ContactTypeWhatsApp, "+5511999887766", true)))

	s.Run("same value for another customer is rejected", func() {
		err := s.store.Create(s.ctx, s.newContact(id.New[id.CustomerID](), models.ContactTypeWhatsApp, "11 99988-7766", false))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
		s.Equal(ConstraintValue, sentinel.Constraint(err))
	})

	s.Run("same value under another type is allowed", func() {
		s.NoError(s.store.Create(s.ctx, s.newContact(s.customer, models.ContactTypePhone, "+5511999887766", true)))
	})
}

func (s *ContactStoreSuite) TestPrimaryUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newContact(s.customer, models.ContactTypeEmail, "a@example.com", true)))

	err := s.store.Create(s.ctx, s.newContact(s.customer, models.ContactTypeEmail, "b@example.com", true))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	s.Equal(ConstraintPrimary, sentinel.Constraint(err))

	second := s.newContact(s.customer, models.ContactTypeEmail, "b@example.com", false)
	s.Require().NoError(s.store.Create(s.ctx, second))

	second.IsPrimary = true
	s.Equal(ConstraintPrimary, sentinel.Constraint(s.store.Update(s.ctx, second)))

	s.Require().NoError(s.store.DemotePrimary(s.ctx, s.customer, models.ContactTypeEmail))
	s.Require().NoError(s.store.Update(s.ctx, second))

	n, err := s.store.CountPrimary(s.ctx, s.customer, models.ContactTypeEmail)
	s.Require().NoError(err)
	s.Equal(1, n)

	list, err := s.store.ListByCustomer(s.ctx, s.customer)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.True(list[0].IsPrimary)
	s.Equal(second.ID, list[0].ID)
}

func (s *ContactStoreSuite) TestLookups() {
	cp := s.newContact(s.customer, models.ContactTypeInstagram, "@Cafe.Brasil", true)
	s.Require().NoError(s.store.Create(s.ctx, cp))

	found, err := s.store.FindByValue(s.ctx, models.ContactTypeInstagram, "cafe.brasil")
	s.Require().NoError(err)
	s.Equal(cp.ID, found.ID)

	_, err = s.store.FindByValue(s.ctx, models.ContactTypeInstagram, "other")
	s.ErrorIs(err, sentinel.ErrNotFound)

	many, err := s.store.FindByValues(s.ctx, []models.ContactKey{
		{Type: models.ContactTypeInstagram, Value: "cafe.brasil"},
		{Type: models.ContactTypeEmail, Value: "none@example.com"},
	})
	s.Require().NoError(err)
	s.Len(many, 1)

	_, err = s.store.FindByID(s.ctx, id.New[id.ContactPointID]())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
