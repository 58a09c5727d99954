package models

import (
	"strings"

	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
)

// Search limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// CreateCustomerRequest carries a new customer. Code is generated when empty.
type CreateCustomerRequest struct {
	Code         string         `json:"code"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Type         CustomerType   `json:"customer_type"`
	Document     string         `json:"document"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email"`
	Notes        string         `json:"notes"`
	Metadata     map[string]any `json:"metadata"`
	SourceSystem string         `json:"source_system"`
}

// Validate implements httputil.Validatable.
func (r *CreateCustomerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Code = strings.TrimSpace(r.Code)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if len(r.Code) > MaxCodeLength {
		return dErrors.New(dErrors.CodeValidation, "code must be 64 characters or less")
	}
	if r.FirstName == "" && r.Phone == "" && r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name, phone or email is required")
	}
	if r.Type != "" && !r.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "customer_type must be individual or business")
	}
	return nil
}

// UpdateCustomerRequest holds the whitelisted mutable fields. Nil means unchanged.
type UpdateCustomerRequest struct {
	FirstName    *string        `json:"first_name"`
	LastName     *string        `json:"last_name"`
	Type         *CustomerType  `json:"customer_type"`
	Document     *string        `json:"document"`
	Phone        *string        `json:"phone"`
	Email        *string        `json:"email"`
	Notes        *string        `json:"notes"`
	Metadata     map[string]any `json:"metadata"`
	SourceSystem *string        `json:"source_system"`
}

// Validate implements httputil.Validatable.
func (r *UpdateCustomerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Type != nil && !r.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "customer_type must be individual or business")
	}
	return nil
}

// SearchQuery filters the directory.
type SearchQuery struct {
	Query      string
	OnlyActive bool
	Limit      int
}

// Normalize trims the query and clamps the limit.
func (q *SearchQuery) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	if q.Limit > MaxSearchLimit {
		q.Limit = MaxSearchLimit
	}
}

// Validation error codes returned to channel adapters.
const (
	ErrCodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	ErrCodeDuplicateContact = "DUPLICATE_CONTACT"
	ErrCodeInvalidPhone     = "INVALID_PHONE"
	ErrCodeMergeDenied      = "MERGE_DENIED"
)

// Validation answers "is this customer code usable?".
type Validation struct {
	Valid      bool          `json:"valid"`
	Code       string        `json:"code"`
	CustomerID id.CustomerID `json:"customer_id,omitempty"`
	Name       string        `json:"name,omitempty"`
	Type       CustomerType  `json:"customer_type,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// AddContactRequest attaches a contact point to a customer.
type AddContactRequest struct {
	CustomerCode string      `json:"-"`
	Type         ContactType `json:"type"`
	Value        string      `json:"value"`
	Primary      bool        `json:"is_primary"`
}

// Validate implements httputil.Validatable.
func (r *AddContactRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	t, err := ParseContactType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = t
	if strings.TrimSpace(r.Value) == "" {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	return nil
}
