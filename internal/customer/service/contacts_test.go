package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"guestman/internal/customer/models"
	"guestman/internal/customer/service/mocks"
	contactstore "guestman/internal/customer/store/contactpoint"
	customerstore "guestman/internal/customer/store/customer"
	"guestman/internal/gates"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/tx"
	"guestman/pkg/requestcontext"
)

func (s *ServiceSuite) addContact(code string, t models.ContactType, value string, primary bool) *models.ContactPoint {
	cp, err := s.contactSvc.Add(s.ctx, &models.AddContactRequest{CustomerCode: code, Type: t, Value: value, Primary: primary})
	s.Require().NoError(err)
	return cp
}

func (s *ServiceSuite) TestAddFirstOfTypeBecomesPrimary() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	first := s.addContact("C-1", models.ContactTypeWhatsApp, "11 99988-7766", false)
	s.True(first.IsPrimary)
	s.Equal("5511999887766", first.ValueNormalized)
	s.Equal("11 99988-7766", first.ValueDisplay)

	second := s.addContact("C-1", models.ContactTypeWhatsApp, "11 98888-7766", false)
	s.False(second.IsPrimary)
}

func (s *ServiceSuite) TestAddExplicitPrimaryDemotesPrevious() {
	c := s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766"})

	added := s.addContact("C-1", models.ContactTypePhone, "11 98888-7766", true)
	s.True(added.IsPrimary)

	primary := s.primaryOf(c, models.ContactTypePhone)
	s.Require().NotNil(primary)
	s.Equal(added.ID, primary.ID)

	refreshed, err := s.directory.Get(s.ctx, "C-1")
	s.Require().NoError(err)
	s.Equal("5511988887766", refreshed.Phone)
}

func (s *ServiceSuite) TestAddSameValueIsIdempotent() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})

	first := s.addContact("C-1", models.ContactTypeEmail, "ana@example.com", false)
	again := s.addContact("C-1", models.ContactTypeEmail, " ANA@example.com", false)
	s.Equal(first.ID, again.ID)

	cps, err := s.contactSvc.List(s.ctx, "C-1")
	s.Require().NoError(err)
	s.Len(cps, 1)
}

func (s *ServiceSuite) TestAddValueOwnedByAnotherFailsG1() {
	s.create(models.CreateCustomerRequest{Code: "C-1", Email: "ana@example.com"})
	s.create(models.CreateCustomerRequest{Code: "C-2", FirstName: "Bia"})

	_, err := s.contactSvc.Add(s.ctx, &models.AddContactRequest{CustomerCode: "C-2", Type: models.ContactTypeEmail, Value: "Ana@Example.com"})
	gateErr, ok := gates.AsGateError(err)
	s.Require().True(ok)
	s.Equal(gates.G1ContactPointUniqueness, gateErr.Gate)
	s.Equal("C-1", gateErr.Details["existing_customer_code"])
}

func (s *ServiceSuite) TestAddRequiresActiveCustomer() {
	s.create(models.CreateCustomerRequest{Code: "C-1", FirstName: "Ana"})
	_, err := s.directory.Deactivate(s.ctx, "C-1")
	s.Require().NoError(err)

	_, err = s.contactSvc.Add(s.ctx, &models.AddContactRequest{CustomerCode: "C-1", Type: models.ContactTypeEmail, Value: "ana@example.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.contactSvc.Add(s.ctx, &models.AddContactRequest{CustomerCode: "C-1", Type: "fax", Value: "1"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestSetPrimary() {
	c := s.create(models.CreateCustomerRequest{Code: "C-1", Email: "ana@example.com"})
	other := s.addContact("C-1", models.ContactTypeEmail, "ana.work@example.com", false)

	promoted, err := s.contactSvc.SetPrimary(s.ctx, other.ID)
	s.Require().NoError(err)
	s.True(promoted.IsPrimary)

	count, err := s.contacts.CountPrimary(s.ctx, c.ID, models.ContactTypeEmail)
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal(other.ID, s.primaryOf(c, models.ContactTypeEmail).ID)

	refreshed, err := s.directory.Get(s.ctx, "C-1")
	s.Require().NoError(err)
	s.Equal("ana.work@example.com", refreshed.Email)

	again, err := s.contactSvc.SetPrimary(s.ctx, other.ID)
	s.Require().NoError(err)
	s.True(again.IsPrimary)

	_, err = s.contactSvc.SetPrimary(s.ctx, id.New[id.ContactPointID]())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMarkVerified() {
	s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766"})
	cps, err := s.contactSvc.List(s.ctx, "C-1")
	s.Require().NoError(err)
	s.Require().Len(cps, 1)
	target := cps[0].ID

	verified, err := s.contactSvc.MarkVerified(s.ctx, target, models.VerificationOTPSMS, "otp-123")
	s.Require().NoError(err)
	s.True(verified.IsVerified)
	s.Equal(models.VerificationOTPSMS, verified.VerificationMethod)
	s.Equal(requestTime, *verified.VerifiedAt)
	s.Equal("otp-123", verified.VerificationRef)

	later := requestcontext.WithTime(s.ctx, requestTime.Add(time.Hour))
	reverified, err := s.contactSvc.MarkVerified(later, target, models.VerificationManual, "")
	s.Require().NoError(err)
	s.Equal("otp-123", reverified.VerificationRef)
	s.Equal(requestTime.Add(time.Hour), *reverified.VerifiedAt)
}

func (s *ServiceSuite) TestMarkVerifiedRejectsMethod() {
	s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766"})
	cps, err := s.contactSvc.List(s.ctx, "C-1")
	s.Require().NoError(err)

	for _, method := range []models.VerificationMethod{models.VerificationUnverified, "carrier_pigeon"} {
		_, err := s.contactSvc.MarkVerified(s.ctx, cps[0].ID, method, "")
		s.True(gates.IsGate(err, gates.G3VerifiedTransition), method)
	}

	stored, err := s.contacts.FindByID(s.ctx, cps[0].ID)
	s.Require().NoError(err)
	s.False(stored.IsVerified)
}

func (s *ServiceSuite) TestFindByValue() {
	s.create(models.CreateCustomerRequest{Code: "C-1", Phone: "11999887766"})

	cp, err := s.contactSvc.FindByValue(s.ctx, models.ContactTypePhone, "+55 (11) 99988-7766")
	s.Require().NoError(err)
	s.Require().NotNil(cp)

	cp, err = s.contactSvc.FindByValue(s.ctx, models.ContactTypePhone, "11 90000-0000")
	s.Require().NoError(err)
	s.Nil(cp)
}

// TestAddLostUniquenessRace covers a concurrent writer taking the value
// between the G1 check and the insert.
func TestAddLostUniquenessRace(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	customers := customerstore.NewInMemory()
	contacts := contactstore.NewInMemory()
	gateMock := mocks.NewMockContactGates(ctrl)

	now := time.Now()
	owner, err := models.NewCustomer(id.New[id.CustomerID](), "C-1", "Ana", "", now)
	require.NoError(t, err)
	require.NoError(t, customers.Create(ctx, owner))
	winner, err := models.NewCustomer(id.New[id.CustomerID](), "C-2", "Bia", "", now)
	require.NoError(t, err)
	require.NoError(t, customers.Create(ctx, winner))
	taken, err := models.NewContactPoint(id.New[id.ContactPointID](), winner.ID, models.ContactTypeEmail, "ana@example.com", nil, now)
	require.NoError(t, err)
	require.NoError(t, contacts.Create(ctx, taken))

	g1Failure := &gates.GateError{Gate: gates.G1ContactPointUniqueness, Message: "Contact already exists in another customer."}
	gomock.InOrder(
		gateMock.EXPECT().ContactPointUniqueness(gomock.Any(), models.ContactTypeEmail, "ana@example.com", owner.ID).
			Return(gates.Result{Passed: true, Gate: gates.G1ContactPointUniqueness}, nil),
		gateMock.EXPECT().ContactPointUniqueness(gomock.Any(), models.ContactTypeEmail, "ana@example.com", owner.ID).
			Return(gates.Result{Gate: gates.G1ContactPointUniqueness}, g1Failure),
	)

	svc := NewContacts(customers, contacts, gateMock, tx.NewMemory(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err = svc.Add(ctx, &models.AddContactRequest{CustomerCode: "C-1", Type: models.ContactTypeEmail, Value: "ana@example.com"})
	assert.Same(t, g1Failure, err)
}

func TestAddStoreFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	customers := mocks.NewMockCustomerStore(ctrl)
	customers.EXPECT().FindByCodeForUpdate(gomock.Any(), "C-1").Return(nil, assert.AnError)

	svc := NewContacts(customers, contactstore.NewInMemory(), mocks.NewMockContactGates(ctrl), tx.NewMemory())
	_, err := svc.Add(ctx, &models.AddContactRequest{CustomerCode: "C-1", Type: models.ContactTypeEmail, Value: "ana@example.com"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.ErrorIs(t, err, assert.AnError)
}
