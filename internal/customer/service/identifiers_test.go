package service

import (
	"guestman/internal/customer/models"
	dErrors "guestman/pkg/domain-errors"
)

func (s *ServiceSuite) TestIdentifierAddNormalizesAndIsIdempotent() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	ident, err := s.identSvc.Add(s.ctx, "C-1", models.IdentifierInstagram, "@Ana.Lima", true, " bot ")
	s.Require().NoError(err)
	s.Equal("ana.lima", ident.Value)
	s.True(ident.IsPrimary)
	s.Equal("bot", ident.SourceSystem)

	again, err := s.identSvc.Add(s.ctx, "C-1", models.IdentifierInstagram, "ana.lima", false, "")
	s.Require().NoError(err)
	s.Equal(ident.ID, again.ID)

	found, err := s.identSvc.Find(s.ctx, models.IdentifierInstagram, "ana.lima")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(ident.CustomerID, found.CustomerID)
}

func (s *ServiceSuite) TestIdentifierPrimaryIsExclusivePerType() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	_, err := s.identSvc.Add(s.ctx, "C-1", models.IdentifierTelegram, "111", true, "")
	s.Require().NoError(err)
	second, err := s.identSvc.Add(s.ctx, "C-1", models.IdentifierTelegram, "222", true, "")
	s.Require().NoError(err)
	s.True(second.IsPrimary)

	idents, err := s.identSvc.List(s.ctx, "C-1")
	s.Require().NoError(err)
	s.Require().Len(idents, 2)
	primaries := 0
	for _, ident := range idents {
		if ident.IsPrimary {
			primaries++
			s.Equal("222", ident.Value)
		}
	}
	s.Equal(1, primaries)
}

func (s *ServiceSuite) TestIdentifierOwnedByAnotherConflicts() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})
	s.create(models.CreateCustomerRequest{Code: "C-2", FirstName: "Bia"})

	_, err := s.identSvc.Add(s.ctx, "C-1", models.IdentifierBot, "sub-1", false, "")
	s.Require().NoError(err)

	_, err = s.identSvc.Add(s.ctx, "C-2", models.IdentifierBot, "sub-1", false, "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestIdentifierValidation() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	_, err := s.identSvc.Add(s.ctx, "C-1", models.IdentifierEmail, "   ", false, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.identSvc.Add(s.ctx, "missing", models.IdentifierEmail, "a@b.co", false, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	found, err := s.identSvc.Find(s.ctx, models.IdentifierEmail, "nobody@example.com")
	s.Require().NoError(err)
	s.Nil(found)
}
