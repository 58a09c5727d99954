package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"guestman/internal/customer/models"
	"guestman/internal/customer/service"
	contactstore "guestman/internal/customer/store/contactpoint"
	customerstore "guestman/internal/customer/store/customer"
	externalstore "guestman/internal/customer/store/external"
	identifierstore "guestman/internal/customer/store/identifier"
	"guestman/internal/gates"
	"guestman/internal/identity"
	"guestman/internal/platform/middleware"
	"guestman/pkg/platform/tx"
	"guestman/pkg/testutil"
)

const validToken = "valid-token"

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != validToken {
		return nil, errors.New("bad token")
	}
	return &middleware.JWTClaims{Subject: "svc:test"}, nil
}

type HandlerSuite struct {
	suite.Suite
	router *chi.Mux
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	customers := customerstore.NewInMemory()
	contacts := contactstore.NewInMemory()
	identifiers := identifierstore.NewInMemory()
	engine := gates.New(contacts, customers, nil, gates.WithLogger(logger))
	runner := tx.NewMemory()

	directory := service.NewDirectory(customers, contacts, engine, runner, service.WithLogger(logger))
	contactSvc := service.NewContacts(customers, contacts, engine, runner, service.WithLogger(logger))
	resolver := identity.New(identity.Stores{
		Customers:   customers,
		Contacts:    contacts,
		Identifiers: identifiers,
		Externals:   externalstore.NewInMemory(),
	}, engine, runner, identity.WithLogger(logger))

	s.router = chi.NewRouter()
	New(directory, contactSvc, resolver, engine, logger, stubValidator{}).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) *httpResult {
	req.Header.Set("Authorization", "Bearer "+validToken)
	rr := testutil.DoRequest(s.router, req)
	return &httpResult{code: rr.Code, body: testutil.UnmarshalResponse[map[string]any](s.T(), rr)}
}

type httpResult struct {
	code int
	body *map[string]any
}

func (r *httpResult) get(key string) any {
	return (*r.body)[key]
}

func (s *HandlerSuite) createCustomer(body map[string]any) string {
	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/customers", body))
	s.Require().Equal(http.StatusCreated, res.code, *res.body)
	return res.get("code").(string)
}

func (s *HandlerSuite) TestRequiresBearerToken() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/customers/CUST-1"))
	s.Equal(http.StatusUnauthorized, rr.Code)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/customers/CUST-1")
	req.Header.Set("Authorization", "Bearer nope")
	rr = testutil.DoRequest(s.router, req)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *HandlerSuite) TestCreateGetAndSearch() {
	code := s.createCustomer(map[string]any{"first_name": "Ana", "phone": "11999887766"})
	s.Equal(models.CodeForIdentifier(models.IdentifierPhone, "5511999887766"), code)

	res := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/customers/"+code))
	s.Equal(http.StatusOK, res.code)
	s.Equal("Ana", res.get("first_name"))
	s.Equal("5511999887766", res.get("phone"))
	s.Equal("svc:test", res.get("created_by"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/customers?q=ana"))
	s.Equal(http.StatusOK, res.code)
	s.Equal(1.0, res.get("count"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/customers/NOPE"))
	s.Equal(http.StatusNotFound, res.code)
}

func (s *HandlerSuite) TestCreateValidation() {
	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/customers", map[string]any{"notes": "x"}))
	s.Equal(http.StatusBadRequest, res.code)

	res = s.do(testutil.NewRequestWithBody(s.T(), http.MethodPost, "/customers", "{"))
	s.Equal(http.StatusBadRequest, res.code)
	s.Equal("bad_request", res.get("error"))
}

func (s *HandlerSuite) TestDuplicateContactIsGateConflict() {
	first := s.createCustomer(map[string]any{"code": "A-1", "first_name": "Ana", "email": "ana@example.com"})
	s.createCustomer(map[string]any{"code": "B-1", "first_name": "Bia"})

	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/customers/B-1/contacts",
		map[string]any{"type": "email", "value": " ANA@example.com "}))
	s.Equal(http.StatusConflict, res.code)
	s.Equal(string(gates.G1ContactPointUniqueness), res.get("error"))
	s.Equal("Contact already exists in another customer.", res.get("message"))
	details := res.get("details").(map[string]any)
	s.Equal(first, details["existing_customer_code"])
}

func (s *HandlerSuite) TestContactLifecycle() {
	s.createCustomer(map[string]any{"code": "A-1", "first_name": "Ana"})

	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/customers/A-1/contacts",
		map[string]any{"type": "email", "value": "ana@example.com"}))
	s.Require().Equal(http.StatusCreated, res.code)
	s.Equal(true, res.get("is_primary"))

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/customers/A-1/contacts",
		map[string]any{"type": "email", "value": "ana@work.example.com"}))
	s.Require().Equal(http.StatusCreated, res.code)
	s.Equal(false, res.get("is_primary"))
	secondID := res.get("id").(string)

	res = s.do(testutil.NewRequest(s.T(), http.MethodPost, "/contacts/"+secondID+"/primary"))
	s.Equal(http.StatusOK, res.code)
	s.Equal(true, res.get("is_primary"))

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/contacts/"+secondID+"/verify",
		map[string]any{"method": "unverified"}))
	s.Equal(http.StatusConflict, res.code)
	s.Equal(string(gates.G3VerifiedTransition), res.get("error"))

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/contacts/"+secondID+"/verify",
		map[string]any{"method": "email_link", "ref": "link-1"}))
	s.Equal(http.StatusOK, res.code)
	s.Equal(true, res.get("is_verified"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/customers/A-1/contacts"))
	s.Equal(http.StatusOK, res.code)
	s.Len(res.get("contact_points"), 2)

	res = s.do(testutil.NewRequest(s.T(), http.MethodPost, "/contacts/not-a-uuid/primary"))
	s.Equal(http.StatusBadRequest, res.code)
}

func (s *HandlerSuite) TestUpdateAndDeactivate() {
	s.createCustomer(map[string]any{"code": "A-1", "first_name": "Ana"})

	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPatch, "/customers/A-1", map[string]any{"last_name": "Lima"}))
	s.Equal(http.StatusOK, res.code)
	s.Equal("Lima", res.get("last_name"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodPost, "/customers/A-1/deactivate"))
	s.Equal(http.StatusOK, res.code)
	s.Equal(false, res.get("is_active"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/customers/A-1/validate"))
	s.Equal(http.StatusOK, res.code)
	s.Equal(false, res.get("valid"))
	s.Equal(models.ErrCodeCustomerNotFound, res.get("error_code"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodPost, "/customers/A-1/deactivate"))
	s.Equal(http.StatusConflict, res.code)
}

func (s *HandlerSuite) TestResolveAndLookup() {
	body := map[string]any{"type": "instagram", "value": "@Ana.Lima", "first_name": "Ana"}

	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/identity/resolve", body))
	s.Require().Equal(http.StatusCreated, res.code)
	s.Equal(true, res.get("created"))
	code := res.get("customer").(map[string]any)["code"]

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/identity/resolve", body))
	s.Equal(http.StatusOK, res.code)
	s.Equal(false, res.get("created"))
	s.Equal(code, res.get("customer").(map[string]any)["code"])

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/identity/lookup?type=instagram&value=ana.lima"))
	s.Equal(http.StatusOK, res.code)
	s.Equal(code, res.get("code"))

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/identity/lookup?type=email&value=nobody@example.com"))
	s.Equal(http.StatusNotFound, res.code)

	res = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/identity/lookup?type=fax&value=1"))
	s.Equal(http.StatusBadRequest, res.code)
}

func (s *HandlerSuite) TestMergeCheck() {
	s.createCustomer(map[string]any{"code": "A-1", "first_name": "Ana"})
	s.createCustomer(map[string]any{"code": "B-1", "first_name": "Ana"})

	res := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/merge/check", map[string]any{
		"source_code": "A-1", "target_code": "B-1", "evidence": map[string]any{"same_verified_phone": "yes"},
	}))
	s.Equal(http.StatusOK, res.code)
	s.Equal(true, res.get("allowed"))

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/merge/check", map[string]any{
		"source_code": "A-1", "target_code": "B-1", "evidence": map[string]any{"name_match": true},
	}))
	s.Equal(http.StatusConflict, res.code)
	s.Equal(string(gates.G6MergeSafety), res.get("error"))
	s.Equal("Insufficient evidence for merge.", res.get("message"))

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/merge/check", map[string]any{
		"source_code": "A-1", "target_code": "A-1", "evidence": map[string]any{"staff_override": true},
	}))
	s.Equal(http.StatusConflict, res.code)

	res = s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/merge/check", map[string]any{
		"source_code": "A-1", "target_code": "GONE",
	}))
	s.Equal(http.StatusNotFound, res.code)
}

func TestCustomerCreationFlow(t *testing.T) {
	s := new(HandlerSuite)
	s.SetT(t)
	s.SetupTest()
	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+validToken)
		return testutil.WithTime(req, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	}

	testutil.Given(t, "a customer created with an email", func(t *testing.T) {
		body := testutil.MustMarshal(t, map[string]any{"code": "A-1", "first_name": "Ana", "email": "ana@example.com"})
		rr := testutil.DoRequest(s.router, authed(testutil.NewRequestWithBody(t, http.MethodPost, "/customers", body)))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		testutil.When(t, "fetching it by code", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, authed(testutil.NewRequest(t, http.MethodGet, "/customers/A-1")))

			testutil.Then(t, "the record carries the request time and the email", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				c := testutil.UnmarshalResponse[models.Customer](t, rr)
				assert.Equal(t, "ana@example.com", c.Email)
				assert.True(t, c.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
			})
		})

		testutil.When(t, "creating another customer with the same code", func(t *testing.T) {
			body := testutil.MustMarshal(t, map[string]any{"code": "A-1", "first_name": "Bia"})
			rr := testutil.DoRequest(s.router, authed(testutil.NewRequestWithBody(t, http.MethodPost, "/customers", body)))

			testutil.Then(t, "it is a conflict", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
			})
		})

		testutil.When(t, "looking up the email identifier", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, authed(testutil.NewRequest(t, http.MethodGet, "/identity/lookup?type=email&value=ANA@example.com")))

			testutil.Then(t, "the contact point resolves the customer", func(t *testing.T) {
				testutil.AssertJSONContains(t, rr, "code", "A-1")
			})
		})
	})
}
