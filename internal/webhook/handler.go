// Package webhook receives chat-bot platform deliveries: it authenticates
// them (G4), drops replays (G5) and syncs the subscriber.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"guestman/internal/customer/models"
	"guestman/internal/gates"
	"guestman/internal/identity"
	"guestman/internal/webhook/metrics"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/httputil"
	"guestman/pkg/requestcontext"
)

// Signature and timestamp headers, in lookup order.
const (
	HeaderHubSignature = "X-Hub-Signature-256"
	HeaderBotSignature = "X-Manychat-Signature"
	HeaderTimestamp    = "X-Webhook-Timestamp"
)

// Provider is the replay-ledger provider recorded for deliveries.
const Provider = "bot"

// Gates is the gate subset a delivery passes through.
type Gates interface {
	ProviderEventAuthenticity(ctx context.Context, body []byte, signature, secret string, timestamp time.Time, maxAge time.Duration) (gates.Result, error)
	ReplayProtection(ctx context.Context, nonce, provider string) (gates.Result, error)
}

// Syncer upserts the customer behind a subscriber.
type Syncer interface {
	SyncSubscriber(ctx context.Context, sub identity.Subscriber, source string) (*models.Customer, bool, error)
}

// Config holds the delivery verification settings. An empty Secret accepts
// unsigned deliveries.
type Config struct {
	Secret string
	MaxAge time.Duration
	Source string
}

type Handler struct {
	gates   Gates
	syncer  Syncer
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func New(g Gates, syncer Syncer, cfg Config, opts ...Option) *Handler {
	h := &Handler{
		gates:  g,
		syncer: syncer,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the delivery endpoints. They authenticate by signature,
// not by bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhook/bot", h.handleDelivery)
	r.Post("/webhook", h.handleDelivery)
}

func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "webhook body rejected", "request_id", requestID, "error", err)
		h.respond(w, http.StatusRequestEntityTooLarge, metrics.StatusBadRequest, map[string]any{"error": "Payload too large"})
		return
	}

	signature := r.Header.Get(HeaderHubSignature)
	if signature == "" {
		signature = r.Header.Get(HeaderBotSignature)
	}
	timestamp, ok := parseTimestamp(r.Header.Get(HeaderTimestamp))
	if !ok {
		h.respond(w, http.StatusUnauthorized, metrics.StatusUnauthorized, map[string]any{"error": "Invalid timestamp header."})
		return
	}
	if _, err := h.gates.ProviderEventAuthenticity(ctx, body, signature, h.cfg.Secret, timestamp, h.cfg.MaxAge); err != nil {
		gateErr, isGate := gates.AsGateError(err)
		if !isGate {
			h.internalError(ctx, w, requestID, "webhook authenticity check failed", err)
			return
		}
		h.logger.WarnContext(ctx, "webhook rejected",
			"request_id", requestID,
			"client_ip", requestcontext.ClientIP(ctx),
			"gate", gateErr.Gate,
			"reason", gateErr.Message,
		)
		h.respond(w, http.StatusUnauthorized, metrics.StatusUnauthorized, map[string]any{"error": gateErr.Message})
		return
	}

	var data map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil || data == nil {
		h.respond(w, http.StatusBadRequest, metrics.StatusBadRequest, map[string]any{"error": "Invalid JSON"})
		return
	}

	if nonce := nonceOf(data); nonce != "" {
		if _, err := h.gates.ReplayProtection(ctx, nonce, Provider); err != nil {
			if _, isGate := gates.AsGateError(err); !isGate {
				h.internalError(ctx, w, requestID, "replay check failed", err)
				return
			}
			h.logger.DebugContext(ctx, "duplicate webhook delivery", "request_id", requestID, "nonce", nonce)
			h.respond(w, http.StatusOK, metrics.StatusDuplicate, map[string]any{"status": "duplicate"})
			return
		}
	}

	payload := data
	if sub, ok := data["subscriber"].(map[string]any); ok {
		payload = sub
	}
	customer, created, err := h.syncer.SyncSubscriber(ctx, identity.SubscriberFromMap(payload), h.cfg.Source)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			var de *dErrors.Error
			message := err.Error()
			if errors.As(err, &de) {
				message = de.Message
			}
			h.respond(w, http.StatusBadRequest, metrics.StatusBadRequest, map[string]any{"error": message})
			return
		}
		h.internalError(ctx, w, requestID, "subscriber sync failed", err)
		return
	}

	status := metrics.StatusUpdated
	if created {
		status = metrics.StatusCreated
	}
	h.logger.InfoContext(ctx, "webhook processed", "request_id", requestID, "status", status, "customer_code", customer.Code)
	h.respond(w, http.StatusOK, status, map[string]any{"status": status, "customer_code": customer.Code})
}

func (h *Handler) respond(w http.ResponseWriter, code int, status string, body map[string]any) {
	h.metrics.IncrementRequests(status)
	httputil.WriteJSON(w, code, body)
}

func (h *Handler) internalError(ctx context.Context, w http.ResponseWriter, requestID, msg string, err error) {
	h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	h.respond(w, http.StatusInternalServerError, metrics.StatusError, map[string]any{"error": "Internal error"})
}

// parseTimestamp reads unix seconds. An absent header is the zero time.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// nonceOf returns the top-level "id", falling back to "event_id". Empty
// strings and zero count as absent.
func nonceOf(data map[string]any) string {
	for _, key := range []string{"id", "event_id"} {
		switch v := data[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			if s := v.String(); s != "0" {
				return s
			}
		}
	}
	return ""
}
