package service

import (
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"guestman/internal/customer/models"
	"guestman/internal/gates"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
)

func (s *ServiceSuite) TestCreateDerivesCodeFromPhone() {
	c := s.create(models.CreateCustomerRequest{FirstName: " Ana ", Phone: "(11) 99988-7766"})

	s.Equal(models.CodeForIdentifier(models.IdentifierPhone, "5511999887766"), c.Code)
	s.Equal("Ana", c.FirstName)
	s.Equal("5511999887766", c.Phone)
	s.Equal("svc:bot-adapter", c.CreatedBy)
	s.Equal(requestTime, c.CreatedAt)

	primary := s.primaryOf(c, models.ContactTypePhone)
	s.Require().NotNil(primary)
	s.Equal("5511999887766", primary.ValueNormalized)

	s.Equal(1.0, promtest.ToFloat64(s.metrics.CustomersTotal))
	published := s.recorder.Events()
	s.Require().Len(published, 1)
	s.Equal(models.EventCustomerCreated, published[0].Kind)
	s.Equal(c.Code, published[0].Code)
	s.NotEmpty(published[0].ID)
}

func (s *ServiceSuite) TestCreateMirrorsPhoneAndEmail() {
	c := s.create(models.CreateCustomerRequest{
		Code:     "C-1",
		Phone:    "11 99988 7766",
		Email:    " Ana@Example.COM ",
		Document: "123.456.789-09",
	})

	s.Equal("C-1", c.Code)
	s.Equal("ana@example.com", c.Email)
	s.Equal("12345678909", c.Document)
	s.NotNil(s.primaryOf(c, models.ContactTypePhone))
	s.NotNil(s.primaryOf(c, models.ContactTypeEmail))
}

func (s *ServiceSuite) TestCreateDerivesCodeFromEmailOrRandom() {
	byEmail := s.create(models.CreateCustomerRequest{Email: "ana@example.com"})
	s.Equal(models.CodeForIdentifier(models.IdentifierEmail, "ana@example.com"), byEmail.Code)

	random := s.create(models.CreateCustomerRequest{FirstName: "Bia"})
	s.Regexp(`^CUST-[0-9A-F]{8}$`, random.Code)
}

func (s *ServiceSuite) TestCreateRejectsContactOwnedByAnother() {
	first := s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766"})

	_, err := s.directory.Create(s.ctx, &models.CreateCustomerRequest{Code: "C-2", Phone: "+55 11 99988-7766"})
	gateErr, ok := gates.AsGateError(err)
	s.Require().True(ok, "expected gate error, got %v", err)
	s.Equal(gates.G1ContactPointUniqueness, gateErr.Gate)
	s.Equal(first.Code, gateErr.Details["existing_customer_code"])

	missing, err := s.directory.Get(s.ctx, "C-2")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *ServiceSuite) TestCreateDuplicateCode() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	_, err := s.directory.Create(s.ctx, &models.CreateCustomerRequest{Code: "C-1", FirstName: "Bia"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreateValidation() {
	_, err := s.directory.Create(s.ctx, &models.CreateCustomerRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.directory.Create(s.ctx, &models.CreateCustomerRequest{FirstName: "Ana", Type: "robot"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestReadPathReturnsNilWhenAbsent() {
	c, err := s.directory.Get(s.ctx, "nope")
	s.Require().NoError(err)
	s.Nil(c)

	c, err = s.directory.GetByUUID(s.ctx, id.New[id.CustomerID]())
	s.Require().NoError(err)
	s.Nil(c)

	c, err = s.directory.GetByEmail(s.ctx, "")
	s.Require().NoError(err)
	s.Nil(c)
}

func (s *ServiceSuite) TestLookupsExcludeInactive() {
	c := s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766", Document: "123"})

	found, err := s.directory.GetByDocument(s.ctx, "1-2-3")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(c.ID, found.ID)

	_, err = s.directory.Deactivate(s.ctx, "C-1")
	s.Require().NoError(err)

	for _, lookup := range []func() (*models.Customer, error){
		func() (*models.Customer, error) { return s.directory.Get(s.ctx, "C-1") },
		func() (*models.Customer, error) { return s.directory.GetByUUID(s.ctx, c.ID) },
		func() (*models.Customer, error) { return s.directory.GetByPhone(s.ctx, "11999887766") },
		func() (*models.Customer, error) { return s.directory.GetByDocument(s.ctx, "123") },
	} {
		found, err := lookup()
		s.Require().NoError(err)
		s.Nil(found)
	}

	v, err := s.directory.Validate(s.ctx, "C-1")
	s.Require().NoError(err)
	s.False(v.Valid)
	s.Equal(models.ErrCodeCustomerNotFound, v.ErrorCode)
	s.Equal("Customer 'C-1' not found", v.Message)
}

func (s *ServiceSuite) TestValidateActive() {
	c := s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana", LastName: "Lima", Type: models.CustomerTypeBusiness})

	v, err := s.directory.Validate(s.ctx, "C-1")
	s.Require().NoError(err)
	s.True(v.Valid)
	s.Equal(c.ID, v.CustomerID)
	s.Equal("Ana Lima", v.Name)
	s.Equal(models.CustomerTypeBusiness, v.Type)
}

func (s *ServiceSuite) TestGetByPhoneRetriesWithoutCountryCode() {
	legacy, err := models.NewCustomer(id.New[id.CustomerID](), "LEGACY-1", "Ana", "", time.Now())
	s.Require().NoError(err)
	legacy.Phone = "11999887766"
	s.Require().NoError(s.customers.Create(s.ctx, legacy))

	found, err := s.directory.GetByPhone(s.ctx, "+55 11 99988-7766")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("LEGACY-1", found.Code)
}

func (s *ServiceSuite) TestDeactivateTwiceConflicts() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	c, err := s.directory.Deactivate(s.ctx, "C-1")
	s.Require().NoError(err)
	s.False(c.IsActive)

	_, err = s.directory.Deactivate(s.ctx, "C-1")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.directory.Deactivate(s.ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	published := s.recorder.Events()
	s.Require().Len(published, 2)
	s.Equal(models.Change{Old: true, New: false}, published[1].Changes["is_active"])
}

func (s *ServiceSuite) TestUpdateRecordsChangesAndResyncsContacts() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana", Email: "ana@example.com"})

	first := "Ana Maria"
	email := "ANA.MARIA@example.com"
	notes := ""
	c, err := s.directory.Update(s.ctx, "C-1", &models.UpdateCustomerRequest{
		FirstName: &first,
		Email:     &email,
		Notes:     &notes,
	})
	s.Require().NoError(err)
	s.Equal("Ana Maria", c.FirstName)
	s.Equal("ana.maria@example.com", c.Email)

	primary := s.primaryOf(c, models.ContactTypeEmail)
	s.Require().NotNil(primary)
	s.Equal("ana.maria@example.com", primary.ValueNormalized)

	published := s.recorder.Events()
	s.Require().Len(published, 2)
	updated := published[1]
	s.Equal(models.EventCustomerUpdated, updated.Kind)
	s.Len(updated.Changes, 2)
	s.Equal(models.Change{Old: "Ana", New: "Ana Maria"}, updated.Changes["first_name"])
	s.Equal(models.Change{Old: "ana@example.com", New: "ana.maria@example.com"}, updated.Changes["email"])
}

func (s *ServiceSuite) TestUpdateWithoutChangesPublishesNothing() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	same := "Ana"
	_, err := s.directory.Update(s.ctx, "C-1", &models.UpdateCustomerRequest{FirstName: &same})
	s.Require().NoError(err)
	s.Len(s.recorder.Events(), 1)
}

func (s *ServiceSuite) TestUpdateMissingCustomer() {
	name := "x"
	_, err := s.directory.Update(s.ctx, "missing", &models.UpdateCustomerRequest{FirstName: &name})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdatePhoneOwnedByAnother() {
	s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766"})
	s.create(models.CreateCustomerRequest{Code: "C-2", FirstName: "Bia"})

	phone := "11 99988-7766"
	_, err := s.directory.Update(s.ctx, "C-2", &models.UpdateCustomerRequest{Phone: &phone})
	s.True(gates.IsGate(err, gates.G1ContactPointUniqueness))

	c, err := s.directory.Get(s.ctx, "C-2")
	s.Require().NoError(err)
	s.Empty(c.Phone)
}

func (s *ServiceSuite) TestSearch() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})
	s.create(models.CreateCustomerRequest{Code: "C-2", FirstName: "Bia"})

	found, err := s.directory.Search(s.ctx, models.SearchQuery{Query: " ana ", OnlyActive: true})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("C-1", found[0].Code)

	found, err = s.directory.Search(s.ctx, models.SearchQuery{})
	s.Require().NoError(err)
	s.Empty(found)
}
