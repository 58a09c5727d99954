// Package domain holds typed identifiers shared across modules.
//
// Each ID wraps a UUID so a contact point ID cannot be passed where a
// customer ID is expected. Parse functions are the trust boundary: they
// reject empty, malformed and nil UUIDs with CodeInvalidInput.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "guestman/pkg/domain-errors"
)

type (
	CustomerID         uuid.UUID
	ContactPointID     uuid.UUID
	IdentifierID       uuid.UUID
	ExternalIdentityID uuid.UUID
)

func (id CustomerID) String() string         { return uuid.UUID(id).String() }
func (id ContactPointID) String() string     { return uuid.UUID(id).String() }
func (id IdentifierID) String() string       { return uuid.UUID(id).String() }
func (id ExternalIdentityID) String() string { return uuid.UUID(id).String() }

func (id CustomerID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ContactPointID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id IdentifierID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ExternalIdentityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text encoding delegates to uuid.UUID so IDs render as canonical strings in
// JSON, both as values and as map keys.

func (id CustomerID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id ContactPointID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id IdentifierID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id ExternalIdentityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CustomerID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ContactPointID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *IdentifierID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ExternalIdentityID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// New returns a fresh random UUID for any of the ID types.
func New[T ~[16]byte]() T {
	return T(uuid.New())
}

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

// ParseCustomerID parses a customer UUID.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID("customer id", s)
	return CustomerID(u), err
}

// ParseContactPointID parses a contact point UUID.
func ParseContactPointID(s string) (ContactPointID, error) {
	u, err := parseUUID("contact point id", s)
	return ContactPointID(u), err
}

// ParseIdentifierID parses an identifier UUID.
func ParseIdentifierID(s string) (IdentifierID, error) {
	u, err := parseUUID("identifier id", s)
	return IdentifierID(u), err
}

// ParseExternalIdentityID parses an external identity UUID.
func ParseExternalIdentityID(s string) (ExternalIdentityID, error) {
	u, err := parseUUID("external identity id", s)
	return ExternalIdentityID(u), err
}
