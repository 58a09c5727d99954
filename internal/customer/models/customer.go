package models

import (
	"crypto/md5"
	"encoding/hex"
	"maps"
	"strings"
	"time"

	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
)

// CustomerType distinguishes people from companies.
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeBusiness   CustomerType = "business"
)

// IsValid reports whether t is a known customer type.
func (t CustomerType) IsValid() bool {
	return t == CustomerTypeIndividual || t == CustomerTypeBusiness
}

// Code prefixes for generated customer codes.
const (
	CodePrefixCustomer = "CUST-"
	CodePrefixBot      = "BOT-"
)

// MaxCodeLength bounds customer codes.
const MaxCodeLength = 64

// Customer is the aggregate root for one person or company.
//
// Invariants:
//   - Code is non-empty, at most 64 characters and unique across all customers
//   - Inactive customers are never returned by lookups and never hard-deleted
//   - Phone and Email are a legacy cache of the primary contact points;
//     ContactPoints are the source of truth
type Customer struct {
	ID           id.CustomerID  `json:"id"`
	Code         string         `json:"code"`
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Type         CustomerType   `json:"customer_type"`
	Document     string         `json:"document,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Email        string         `json:"email,omitempty"`
	IsActive     bool           `json:"is_active"`
	Notes        string         `json:"notes,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	SourceSystem string         `json:"source_system,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewCustomer validates invariants and returns an active customer.
func NewCustomer(customerID id.CustomerID, code, firstName string, customerType CustomerType, now time.Time) (*Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "customer code cannot be empty")
	}
	if len(code) > MaxCodeLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "customer code must be 64 characters or less")
	}
	if customerType == "" {
		customerType = CustomerTypeIndividual
	}
	if !customerType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "customer type must be individual or business")
	}
	return &Customer{
		ID:        customerID,
		Code:      code,
		FirstName: strings.TrimSpace(firstName),
		Type:      customerType,
		IsActive:  true,
		Metadata:  map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Name returns "first last" trimmed.
func (c *Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CanDeactivate checks the active -> inactive transition.
func (c *Customer) CanDeactivate() error {
	if !c.IsActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "customer is already inactive")
	}
	return nil
}

// ApplyDeactivation marks the customer inactive.
func (c *Customer) ApplyDeactivation(now time.Time) {
	c.IsActive = false
	c.UpdatedAt = now
}

// Clone returns a deep-enough copy for stores that hand out values.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Metadata = maps.Clone(c.Metadata)
	if cp.Metadata == nil {
		cp.Metadata = map[string]any{}
	}
	return &cp
}

// GenerateCode derives a stable code: prefix + first 8 hex chars of MD5(seed), upper-cased.
func GenerateCode(prefix, seed string) string {
	sum := md5.Sum([]byte(seed))
	return prefix + strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

// CodeForIdentifier is the code given to customers created from an identifier.
func CodeForIdentifier(t IdentifierType, normalizedValue string) string {
	return GenerateCode(CodePrefixCustomer, string(t)+":"+normalizedValue)
}

// CodeForSubscriber is the code given to customers created from a bot subscriber.
func CodeForSubscriber(subscriberID string) string {
	return GenerateCode(CodePrefixBot, subscriberID)
}
