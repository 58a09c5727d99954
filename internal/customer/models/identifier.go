package models

import (
	"strings"
	"time"

	"guestman/pkg/contact"
	id "guestman/pkg/domain"
	dErrors "guestman/pkg/domain-errors"
)

// IdentifierType is the kind of cross-channel identifier.
type IdentifierType string

const (
	IdentifierPhone     IdentifierType = "phone"
	IdentifierEmail     IdentifierType = "email"
	IdentifierWhatsApp  IdentifierType = "whatsapp"
	IdentifierInstagram IdentifierType = "instagram"
	IdentifierFacebook  IdentifierType = "facebook"
	IdentifierTelegram  IdentifierType = "telegram"
	// IdentifierBot is a chat-bot platform subscriber id.
	IdentifierBot IdentifierType = "bot"
)

var identifierTypes = map[IdentifierType]struct{}{
	IdentifierPhone: {}, IdentifierEmail: {}, IdentifierWhatsApp: {}, IdentifierInstagram: {},
	IdentifierFacebook: {}, IdentifierTelegram: {}, IdentifierBot: {},
}

// ParseIdentifierType validates an identifier type string. "manychat" is
// accepted as an alias of bot.
func ParseIdentifierType(s string) (IdentifierType, error) {
	t := IdentifierType(strings.ToLower(strings.TrimSpace(s)))
	if t == "manychat" {
		return IdentifierBot, nil
	}
	if _, ok := identifierTypes[t]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unknown identifier type: "+s)
	}
	return t, nil
}

// Kind returns the normalization rule for the type.
func (t IdentifierType) Kind() contact.Kind {
	switch t {
	case IdentifierPhone:
		return contact.KindPhone
	case IdentifierWhatsApp:
		return contact.KindWhatsApp
	case IdentifierEmail:
		return contact.KindEmail
	case IdentifierInstagram:
		return contact.KindInstagram
	}
	return contact.KindOther
}

// ContactType returns the contact point type mirrored by this identifier, if any.
func (t IdentifierType) ContactType() (ContactType, bool) {
	switch t {
	case IdentifierPhone:
		return ContactTypePhone, true
	case IdentifierEmail:
		return ContactTypeEmail, true
	case IdentifierWhatsApp:
		return ContactTypeWhatsApp, true
	case IdentifierInstagram:
		return ContactTypeInstagram, true
	}
	return "", false
}

// Identifier maps one (type, value) to a customer. (Type, Value) is globally unique.
type Identifier struct {
	ID           id.IdentifierID `json:"id"`
	CustomerID   id.CustomerID   `json:"customer_id"`
	Type         IdentifierType  `json:"identifier_type"`
	Value        string          `json:"identifier_value"`
	IsPrimary    bool            `json:"is_primary"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
	SourceSystem string          `json:"source_system,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Clone returns a copy safe to hand out.
func (i *Identifier) Clone() *Identifier {
	if i == nil {
		return nil
	}
	cp := *i
	if i.VerifiedAt != nil {
		t := *i.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}

// IdentifierKey is the global unique key of an identifier.
type IdentifierKey struct {
	Type  IdentifierType
	Value string
}
