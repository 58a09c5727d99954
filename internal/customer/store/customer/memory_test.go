package customer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
)

type CustomerStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestCustomerStoreSuite(t *testing.T) {
	suite.Run(t, new(CustomerStoreSuite))
}

func (s *CustomerStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *CustomerStoreSuite) newCustomer(code string) *models.Customer {
	c, err := models.NewCustomer(id.New[id.CustomerID](), code, "Ana", models.CustomerTypeIndividual, time.Now())
	s.Require().NoError(err)
	return c
}

func (s *CustomerStoreSuite) TestCreateAndFind() {
	s.Run("finds by id and code", func() {
		c := s.newCustomer("C-1")
		s.Require().NoError(s.store.Create(s.ctx, c))

		byID, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("C-1", byID.Code)

		byCode, err := s.store.FindByCode(s.ctx, "C-1")
		s.Require().NoError(err)
		s.Equal(c.ID, byCode.ID)
	})

	s.Run("duplicate code is a constraint error", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newCustomer("C-2")))
		err := s.store.Create(s.ctx, s.newCustomer("C-2"))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
		s.Equal(ConstraintCode, sentinel.Constraint(err))
	})

	s.Run("unknown code is not found", func() {
		_, err := s.store.FindByCode(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned values are copies", func() {
		c := s.newCustomer("C-3")
		s.Require().NoError(s.store.Create(s.ctx, c))
		found, err := s.store.FindByCode(s.ctx, "C-3")
		s.Require().NoError(err)
		found.FirstName = "Changed"
		found.Metadata["x"] = 1

		again, err := s.store.FindByCode(s.ctx, "C-3")
		s.Require().NoError(err)
		s.Equal("Ana", again.FirstName)
		s.NotContains(again.Metadata, "x")
	})
}

func (s *CustomerStoreSuite) TestLegacyLookupsSkipInactive() {
	active := s.newCustomer("A-1")
	active.Phone = "5511999887766"
	active.Email = "Ana@Example.com"
	active.Document = "12345678901"
	s.Require().NoError(s.store.Create(s.ctx, active))

	inactive := s.newCustomer("I-1")
	inactive.Phone = "5511888887777"
	inactive.IsActive = false
	s.Require().NoError(s.store.Create(s.ctx, inactive))

	found, err := s.store.FindByPhone(s.ctx, "5511999887766")
	s.Require().NoError(err)
	s.Equal(active.ID, found.ID)

	found, err = s.store.FindByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(active.ID, found.ID)

	found, err = s.store.FindByDocument(s.ctx, "12345678901")
	s.Require().NoError(err)
	s.Equal(active.ID, found.ID)

	_, err = s.store.FindByPhone(s.ctx, "5511888887777")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CustomerStoreSuite) TestSearch() {
	for _, code := range []string{"B-2", "A-1", "C-3"} {
		c := s.newCustomer(code)
		if code == "C-3" {
			c.IsActive = false
			c.LastName = "Souza"
		}
		s.Require().NoError(s.store.Create(s.ctx, c))
	}

	all, err := s.store.Search(s.ctx, models.SearchQuery{Limit: 10})
	s.Require().NoError(err)
	s.Len(all, 3)
	s.Equal("A-1", all[0].Code)

	active, err := s.store.Search(s.ctx, models.SearchQuery{OnlyActive: true, Limit: 10})
	s.Require().NoError(err)
	s.Len(active, 2)

	byName, err := s.store.Search(s.ctx, models.SearchQuery{Query: "souz", Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(byName, 1)
	s.Equal("C-3", byName[0].Code)

	limited, err := s.store.Search(s.ctx, models.SearchQuery{Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *CustomerStoreSuite) TestUpdate() {
	c := s.newCustomer("U-1")
	s.Require().NoError(s.store.Create(s.ctx, c))

	c.LastName = "Lima"
	s.Require().NoError(s.store.Update(s.ctx, c))
	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Lima", found.LastName)

	s.ErrorIs(s.store.Update(s.ctx, s.newCustomer("ghost")), sentinel.ErrNotFound)
}

func (s *CustomerStoreSuite) TestFindActiveByIDs() {
	a := s.newCustomer("X-1")
	b := s.newCustomer("X-2")
	b.IsActive = false
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	found, err := s.store.FindActiveByIDs(s.ctx, []id.CustomerID{a.ID, b.ID, id.New[id.CustomerID]()})
	s.Require().NoError(err)
	s.Len(found, 1)
	s.Contains(found, a.ID)
}
