package models

import (
	"strings"
	"time"

	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
)

// ContactType is the channel of a contact point.
type ContactType string

const (
	ContactTypeWhatsApp  ContactType = "whatsapp"
	ContactTypePhone     ContactType = "phone"
	ContactTypeEmail     ContactType = "email"
	ContactTypeInstagram ContactType = "instagram"
)

// ParseContactType validates a contact type string.
func ParseContactType(s string) (ContactType, error) {
	t := ContactType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ContactTypeWhatsApp, ContactTypePhone, ContactTypeEmail, ContactTypeInstagram:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown contact type: "+s)
}

// Kind returns the normalization rule for the type.
func (t ContactType) Kind() contact.Kind {
	switch t {
	case ContactTypeWhatsApp:
		return contact.KindWhatsApp
	case ContactTypePhone:
		return contact.KindPhone
	case ContactTypeEmail:
		return contact.KindEmail
	case ContactTypeInstagram:
		return contact.KindInstagram
	}
	return contact.KindOther
}

// VerificationMethod records how a contact point was verified.
type VerificationMethod string

const (
	VerificationUnverified      VerificationMethod = "unverified"
	VerificationChannelAsserted VerificationMethod = "channel_asserted"
	VerificationOTPWhatsApp     VerificationMethod = "otp_whatsapp"
	VerificationOTPSMS          VerificationMethod = "otp_sms"
	VerificationEmailLink       VerificationMethod = "email_link"
	VerificationManual          VerificationMethod = "manual"
)

// ContactPoint is one reachable channel of a customer.
//
// Invariants:
//   - (Type, ValueNormalized) is unique across all customers
//   - At most one primary per (CustomerID, Type)
//   - IsVerified implies VerificationMethod != unverified and VerifiedAt set
type ContactPoint struct {
	ID                 id.ContactPointID  `json:"id"`
	CustomerID         id.CustomerID      `json:"customer_id"`
	Type               ContactType        `json:"type"`
	ValueNormalized    string             `json:"value_normalized"`
	ValueDisplay       string             `json:"value_display,omitempty"`
	IsPrimary          bool               `json:"is_primary"`
	IsVerified         bool               `json:"is_verified"`
	VerificationMethod VerificationMethod `json:"verification_method"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty"`
	VerificationRef    string             `json:"verification_ref,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// NewContactPoint normalizes raw and returns an unverified, non-primary contact.
func NewContactPoint(contactID id.ContactPointID, customerID id.CustomerID, t ContactType, raw string, n *contact.Normalizer, now time.Time) (*ContactPoint, error) {
	if n == nil {
		n = contact.Default()
	}
	normalized := n.Normalize(raw, t.Kind())
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "contact value is empty after normalization")
	}
	return &ContactPoint{
		ID:                 contactID,
		CustomerID:         customerID,
		Type:               t,
		ValueNormalized:    normalized,
		ValueDisplay:       strings.TrimSpace(raw),
		VerificationMethod: VerificationUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Masked hides most of the value for logs and listings.
func (c *ContactPoint) Masked() string {
	return contact.Mask(c.Type.Kind(), c.ValueNormalized)
}

// ApplyVerification records a verification. The method must already have
// passed the verified-transition gate.
func (c *ContactPoint) ApplyVerification(method VerificationMethod, ref string, now time.Time) {
	c.IsVerified = true
	c.VerificationMethod = method
	c.VerifiedAt = &now
	c.VerificationRef = ref
	c.UpdatedAt = now
}

// Clone returns a copy safe to hand out.
func (c *ContactPoint) Clone() *ContactPoint {
	if c == nil {
		return nil
	}
	cp := *c
	if c.VerifiedAt != nil {
		t := *c.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}

// ContactKey is the global unique key of a contact point.
type ContactKey struct {
	Type  ContactType
	Value string
}
