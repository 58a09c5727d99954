package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"guestman/internal/customer/models"
	contactstore "guestman/internal/customer/store/contactpoint"
	customerstore "guestman/internal/customer/store/customer"
	externalstore "guestman/internal/customer/store/external"
	identifierstore "guestman/internal/customer/store/identifier"
	"guestman/internal/gates"
	"guestman/internal/identity"
	replaystore "guestman/internal/replay/store"
	"guestman/internal/webhook/metrics"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/platform/tx"
)

const secret = "s3cret"

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type WebhookSuite struct {
	suite.Suite
	router  *chi.Mux
	metrics     *metrics.Metrics
	ledger      *replaystore.InMemory
	customers   *customerstore.InMemory
	identifiers *identifierstore.InMemory
}

func TestWebhookSuite(t *testing.T) {
	suite.Run(t, new(WebhookSuite))
}

func (s *WebhookSuite) SetupTest() {
	s.router = s.newRouter(Config{Secret: secret, Source: "bot"}, nil)
}

// newRouter wires the real gates and resolver over in-memory stores. A nil
// syncer uses the resolver.
func (s *WebhookSuite) newRouter(cfg Config, syncer Syncer) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	customers := customerstore.NewInMemory()
	contacts := contactstore.NewInMemory()
	s.customers = customers
	s.identifiers = identifierstore.NewInMemory()
	s.ledger = replaystore.NewInMemory()
	engine := gates.New(contacts, customers, s.ledger,
		gates.WithLogger(logger),
		gates.WithClock(func() time.Time { return now }),
	)
	if syncer == nil {
		syncer = identity.New(identity.Stores{
			Customers:   customers,
			Contacts:    contacts,
			Identifiers: s.identifiers,
			Externals:   externalstore.NewInMemory(),
		}, engine, tx.NewMemory(), identity.WithLogger(logger))
	}
	s.metrics = metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	New(engine, syncer, cfg, WithLogger(logger), WithMetrics(s.metrics)).Register(r)
	return r
}

func (s *WebhookSuite) post(path string, body []byte, headers map[string]string) (int, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func signed(body []byte) map[string]string {
	return map[string]string{HeaderHubSignature: gates.Sign(body, secret)}
}

func (s *WebhookSuite) TestValidDeliveryCreatesCustomer() {
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1","first_name":"Ana","phone":"11999887766"}}`)

	code, out := s.post("/webhook/bot", body, signed(body))
	s.Equal(http.StatusOK, code)
	s.Equal("created", out["status"])
	s.Equal(models.CodeForSubscriber("sub-1"), out["customer_code"])
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Requests.WithLabelValues(metrics.StatusCreated)))
}

func (s *WebhookSuite) TestReplayIsDuplicate() {
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)

	code, out := s.post("/webhook", body, signed(body))
	s.Require().Equal(http.StatusOK, code)
	s.Equal("created", out["status"])

	code, out = s.post("/webhook", body, signed(body))
	s.Equal(http.StatusOK, code)
	s.Equal(map[string]any{"status": "duplicate"}, out)
}

func (s *WebhookSuite) TestRedeliveryWithNewEventUpdates() {
	first := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)
	second := []byte(`{"id":"evt-2","subscriber":{"id":"sub-1","last_name":"Lima"}}`)

	_, _ = s.post("/webhook", first, signed(first))
	code, out := s.post("/webhook", second, signed(second))
	s.Equal(http.StatusOK, code)
	s.Equal("updated", out["status"])
}

func (s *WebhookSuite) TestBodyIsSubscriberWhenNotWrapped() {
	body := []byte(`{"id":12345,"first_name":"Ana"}`)

	code, out := s.post("/webhook/bot", body, signed(body))
	s.Equal(http.StatusOK, code)
	s.Equal(models.CodeForSubscriber("12345"), out["customer_code"])

	seen, err := s.ledger.Exists(context.Background(), "12345")
	s.Require().NoError(err)
	s.True(seen)
}

func (s *WebhookSuite) TestTamperedBodyIsUnauthorized() {
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)
	tampered := []byte(`{"id":"evt-1","subscriber":{"id":"sub-2"}}`)

	code, out := s.post("/webhook/bot", tampered, signed(body))
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Invalid signature.", out["error"])
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Requests.WithLabelValues(metrics.StatusUnauthorized)))

	seen, err := s.ledger.Exists(context.Background(), "evt-1")
	s.Require().NoError(err)
	s.False(seen, "rejected deliveries must not consume the nonce")

	for _, subscriberID := range []string{"sub-1", "sub-2"} {
		_, err := s.customers.FindByCode(context.Background(), models.CodeForSubscriber(subscriberID))
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.identifiers.Find(context.Background(), models.IdentifierBot, subscriberID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	}
}

func (s *WebhookSuite) TestMissingSignature() {
	body := []byte(`{"id":"evt-1"}`)

	code, out := s.post("/webhook/bot", body, nil)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Missing signature header.", out["error"])
}

func (s *WebhookSuite) TestAlternateSignatureHeader() {
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)

	code, _ := s.post("/webhook/bot", body, map[string]string{HeaderBotSignature: gates.Sign(body, secret)[len("sha256="):]})
	s.Equal(http.StatusOK, code)
}

func (s *WebhookSuite) TestTimestamp() {
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)

	stale := signed(body)
	stale[HeaderTimestamp] = strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	code, out := s.post("/webhook/bot", body, stale)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Timestamp too old (600s > 300s).", out["error"])

	garbage := signed(body)
	garbage[HeaderTimestamp] = "yesterday"
	code, _ = s.post("/webhook/bot", body, garbage)
	s.Equal(http.StatusUnauthorized, code)

	fresh := signed(body)
	fresh[HeaderTimestamp] = strconv.FormatInt(now.Add(-time.Minute).Unix(), 10)
	code, _ = s.post("/webhook/bot", body, fresh)
	s.Equal(http.StatusOK, code)
}

func (s *WebhookSuite) TestInvalidJSON() {
	for _, body := range [][]byte{[]byte(`{not json`), []byte(`[1,2]`), []byte(`null`)} {
		code, out := s.post("/webhook/bot", body, signed(body))
		s.Equal(http.StatusBadRequest, code, string(body))
		s.Equal("Invalid JSON", out["error"])
	}
}

func (s *WebhookSuite) TestMissingSubscriberID() {
	body := []byte(`{"event_id":"evt-9","subscriber":{"first_name":"Ana"}}`)

	code, out := s.post("/webhook/bot", body, signed(body))
	s.Equal(http.StatusBadRequest, code)
	s.Equal("subscriber id is required", out["error"])
}

func (s *WebhookSuite) TestDevModeAcceptsUnsignedDeliveries() {
	s.router = s.newRouter(Config{}, nil)
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)

	code, out := s.post("/webhook/bot", body, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("created", out["status"])
}

type failingSyncer struct{}

func (failingSyncer) SyncSubscriber(context.Context, identity.Subscriber, string) (*models.Customer, bool, error) {
	return nil, false, errors.New("database is down")
}

func (s *WebhookSuite) TestSyncFailureIsInternalError() {
	s.router = s.newRouter(Config{Secret: secret}, failingSyncer{})
	body := []byte(`{"id":"evt-1","subscriber":{"id":"sub-1"}}`)

	code, out := s.post("/webhook/bot", body, signed(body))
	s.Equal(http.StatusInternalServerError, code)
	s.Equal(map[string]any{"error": "Internal error"}, out)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Requests.WithLabelValues(metrics.StatusError)))
}

func TestNonceOf(t *testing.T) {
	decode := func(raw string) map[string]any {
		var data map[string]any
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		require.NoError(t, dec.Decode(&data))
		return data
	}

	assert.Equal(t, "evt-1", nonceOf(decode(`{"id":"evt-1","event_id":"x"}`)))
	assert.Equal(t, "x", nonceOf(decode(`{"id":"","event_id":"x"}`)))
	assert.Equal(t, "42", nonceOf(decode(`{"event_id":42}`)))
	assert.Equal(t, "", nonceOf(decode(`{"id":0}`)))
	assert.Equal(t, "", nonceOf(decode(`{"subscriber":{}}`)))
}
