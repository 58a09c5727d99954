// Package handler exposes the customer directory to channel adapters over
// HTTP. Every route requires a bearer service token.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"guestman/internal/customer/models"
	"guestman/internal/gates"
	"guestman/internal/identity"
	"guestman/internal/platform/middleware"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
	"guestman/pkg/platform/httputil"
	"guestman/pkg/requestcontext"
)

// Directory is the customer record surface.
type Directory interface {
	Get(ctx context.Context, code string) (*models.Customer, error)
	Search(ctx context.Context, q models.SearchQuery) ([]*models.Customer, error)
	Validate(ctx context.Context, code string) (models.Validation, error)
	Create(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error)
	Update(ctx context.Context, code string, req *models.UpdateCustomerRequest) (*models.Customer, error)
	Deactivate(ctx context.Context, code string) (*models.Customer, error)
}

// Contacts manages contact points.
type Contacts interface {
	Add(ctx context.Context, req *models.AddContactRequest) (*models.ContactPoint, error)
	SetPrimary(ctx context.Context, contactID id.ContactPointID) (*models.ContactPoint, error)
	MarkVerified(ctx context.Context, contactID id.ContactPointID, method models.VerificationMethod, ref string) (*models.ContactPoint, error)
	List(ctx context.Context, customerCode string) ([]*models.ContactPoint, error)
}

// Resolver finds customers across channels.
type Resolver interface {
	FindByIdentifier(ctx context.Context, t models.IdentifierType, raw string) (*models.Customer, error)
	FindOrCreateCustomer(ctx context.Context, t models.IdentifierType, raw string, defaults identity.Defaults) (*models.Customer, bool, error)
}

// MergeChecker evaluates the merge precondition.
type MergeChecker interface {
	MergeSafety(sourceID, targetID id.CustomerID, evidence map[string]any) (gates.Result, error)
}

// Handler serves the directory API.
type Handler struct {
	logger       *slog.Logger
	directory    Directory
	contacts     Contacts
	resolver     Resolver
	merge        MergeChecker
	jwtValidator middleware.JWTValidator
}

// New creates a new directory Handler.
func New(
	directory Directory,
	contacts Contacts,
	resolver Resolver,
	merge MergeChecker,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		directory:    directory,
		contacts:     contacts,
		resolver:     resolver,
		merge:        merge,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the directory routes behind bearer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Get("/customers", h.handleSearch)
		r.Post("/customers", h.handleCreate)
		r.Get("/customers/{code}", h.handleGet)
		r.Patch("/customers/{code}", h.handleUpdate)
		r.Get("/customers/{code}/validate", h.handleValidate)
		r.Post("/customers/{code}/deactivate", h.handleDeactivate)
		r.Get("/customers/{code}/contacts", h.handleListContacts)
		r.Post("/customers/{code}/contacts", h.handleAddContact)

		r.Post("/contacts/{id}/primary", h.handleSetPrimary)
		r.Post("/contacts/{id}/verify", h.handleVerify)

		r.Post("/identity/resolve", h.handleResolve)
		r.Get("/identity/lookup", h.handleLookup)

		r.Post("/merge/check", h.handleMergeCheck)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	c, err := h.directory.Get(ctx, code)
	if err != nil {
		h.writeError(ctx, w, "failed to get customer", err)
		return
	}
	if c == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "customer not found: "+code))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	q := models.SearchQuery{
		Query:      query.Get("q"),
		OnlyActive: query.Get("include_inactive") != "true",
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a number"))
			return
		}
		q.Limit = limit
	}
	results, err := h.directory.Search(ctx, q)
	if err != nil {
		h.writeError(ctx, w, "failed to search customers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"customers": results, "count": len(results)})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.directory.Validate(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(ctx, w, "failed to validate customer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.CreateCustomerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.directory.Create(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "failed to create customer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.UpdateCustomerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.directory.Update(ctx, chi.URLParam(r, "code"), req)
	if err != nil {
		h.writeError(ctx, w, "failed to update customer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.directory.Deactivate(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(ctx, w, "failed to deactivate customer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cps, err := h.contacts.List(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(ctx, w, "failed to list contact points", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"contact_points": cps})
}

func (h *Handler) handleAddContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.AddContactRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req.CustomerCode = chi.URLParam(r, "code")
	cp, err := h.contacts.Add(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "failed to add contact point", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cp)
}

func (h *Handler) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactPointID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cp, err := h.contacts.SetPrimary(ctx, contactID)
	if err != nil {
		h.writeError(ctx, w, "failed to set primary contact point", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cp)
}

type verifyRequest struct {
	Method models.VerificationMethod `json:"method"`
	Ref    string                    `json:"ref"`
}

func (r *verifyRequest) Validate() error {
	r.Method = models.VerificationMethod(strings.TrimSpace(string(r.Method)))
	if r.Method == "" {
		return dErrors.New(dErrors.CodeValidation, "method is required")
	}
	return nil
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactPointID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[verifyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	cp, err := h.contacts.MarkVerified(ctx, contactID, req.Method, req.Ref)
	if err != nil {
		h.writeError(ctx, w, "failed to verify contact point", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cp)
}

type resolveRequest struct {
	Type         models.IdentifierType `json:"type"`
	Value        string                `json:"value"`
	Code         string                `json:"code"`
	FirstName    string                `json:"first_name"`
	LastName     string                `json:"last_name"`
	CustomerType models.CustomerType   `json:"customer_type"`
	Metadata     map[string]any        `json:"metadata"`
	SourceSystem string                `json:"source_system"`
}

func (r *resolveRequest) Validate() error {
	t, err := models.ParseIdentifierType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = t
	if strings.TrimSpace(r.Value) == "" {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	return nil
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[resolveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, created, err := h.resolver.FindOrCreateCustomer(ctx, req.Type, req.Value, identity.Defaults{
		Code:         req.Code,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Type:         req.CustomerType,
		Metadata:     req.Metadata,
		SourceSystem: req.SourceSystem,
	})
	if err != nil {
		h.writeError(ctx, w, "failed to resolve customer", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, map[string]any{"customer": c, "created": created})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := models.ParseIdentifierType(r.URL.Query().Get("type"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.resolver.FindByIdentifier(ctx, t, r.URL.Query().Get("value"))
	if err != nil {
		h.writeError(ctx, w, "failed to look up customer", err)
		return
	}
	if c == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no customer for identifier"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type mergeCheckRequest struct {
	SourceCode string         `json:"source_code"`
	TargetCode string         `json:"target_code"`
	Evidence   map[string]any `json:"evidence"`
}

func (r *mergeCheckRequest) Validate() error {
	r.SourceCode = strings.TrimSpace(r.SourceCode)
	r.TargetCode = strings.TrimSpace(r.TargetCode)
	if r.SourceCode == "" || r.TargetCode == "" {
		return dErrors.New(dErrors.CodeValidation, "source_code and target_code are required")
	}
	return nil
}

// handleMergeCheck evaluates G6 only. Merges themselves are not executed here.
func (h *Handler) handleMergeCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[mergeCheckRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	source, ok := h.mustGet(ctx, w, req.SourceCode)
	if !ok {
		return
	}
	target, ok := h.mustGet(ctx, w, req.TargetCode)
	if !ok {
		return
	}
	if _, err := h.merge.MergeSafety(source.ID, target.ID, req.Evidence); err != nil {
		h.writeError(ctx, w, "merge check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allowed":     true,
		"source_code": source.Code,
		"target_code": target.Code,
	})
}

func (h *Handler) mustGet(ctx context.Context, w http.ResponseWriter, code string) (*models.Customer, bool) {
	c, err := h.directory.Get(ctx, code)
	if err != nil {
		h.writeError(ctx, w, "failed to get customer", err)
		return nil, false
	}
	if c == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "customer not found: "+code))
		return nil, false
	}
	return c, true
}

// writeError renders gate failures as 409 and everything else through the
// domain error mapping.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if gateErr, ok := gates.AsGateError(err); ok {
		h.logger.InfoContext(ctx, "gate rejected request",
			"request_id", requestID,
			"gate", gateErr.Gate,
			"reason", gateErr.Message,
		)
		httputil.WriteJSON(w, http.StatusConflict, map[string]any{
			"error":   gateErr.Gate,
			"message": gateErr.Message,
			"details": gateErr.Details,
		})
		return
	}
	if code, ok := dErrors.CodeOf(err); ok && code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	} else {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}
