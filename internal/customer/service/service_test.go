package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"guestman/internal/customer/models"
	contactstore "guestman/internal/customer/store/contactpoint"
	customerstore "guestman/internal/customer/store/customer"
	identifierstore "guestman/internal/customer/store/identifier"
	"guestman/internal/events"
	"guestman/internal/gates"
	"guestman/internal/platform/metrics"
	"guestman/pkg/platform/tx"
	"guestman/pkg/requestcontext"
)

var requestTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ServiceSuite wires the three services over the in-memory stores and the
// real gates engine.
type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	customers   *customerstore.InMemory
	contacts    *contactstore.InMemory
	identifiers *identifierstore.InMemory
	recorder    *events.Recorder
	metrics     *metrics.Metrics
	directory   *Directory
	contactSvc  *Contacts
	identSvc    *Identifiers
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithActor(requestcontext.WithTime(context.Background(), requestTime), "svc:bot-adapter")
	s.customers = customerstore.NewInMemory()
	s.contacts = contactstore.NewInMemory()
	s.identifiers = identifierstore.NewInMemory()
	s.recorder = &events.Recorder{}
	s.metrics = metrics.New(prometheus.NewRegistry())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := gates.New(s.contacts, s.customers, nil, gates.WithLogger(logger))
	runner := tx.NewMemory()
	opts := []Option{WithLogger(logger), WithMetrics(s.metrics), WithEventSink(s.recorder)}

	s.directory = NewDirectory(s.customers, s.contacts, engine, runner, opts...)
	s.contactSvc = NewContacts(s.customers, s.contacts, engine, runner, opts...)
	s.identSvc = NewIdentifiers(s.customers, s.identifiers, runner, opts...)
}

func (s *ServiceSuite) create(req models.CreateCustomerRequest) *models.Customer {
	c, err := s.directory.Create(s.ctx, &req)
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) primaryOf(c *models.Customer, t models.ContactType) *models.ContactPoint {
	cps, err := s.contacts.ListByCustomer(s.ctx, c.ID)
	s.Require().NoError(err)
	var primary *models.ContactPoint
	for _, cp := range cps {
		if cp.Type == t && cp.IsPrimary {
			s.Require().Nil(primary, "more than one primary %s", t)
			primary = cp
		}
	}
	return primary
}
