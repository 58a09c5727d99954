package models

import (
	"maps"
	"time"

	id "guestman/pkg/domain"
)

// Provider is an external identity source.
type Provider string

const (
	ProviderBot       Provider = "bot"
	ProviderWhatsApp  Provider = "whatsapp"
	ProviderInstagram Provider = "instagram"
	ProviderFacebook  Provider = "facebook"
	ProviderGoogle    Provider = "google"
	ProviderApple     Provider = "apple"
	ProviderTelegram  Provider = "telegram"
	ProviderOther     Provider = "other"
)

// ExternalIdentity links a provider account to a customer.
// (Provider, ProviderUID) is globally unique.
type ExternalIdentity struct {
	ID           id.ExternalIdentityID `json:"id"`
	CustomerID   id.CustomerID         `json:"customer_id"`
	Provider     Provider              `json:"provider"`
	ProviderUID  string                `json:"provider_uid"`
	ProviderMeta map[string]any        `json:"provider_meta,omitempty"`
	IsActive     bool                  `json:"is_active"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Clone returns a copy safe to hand out.
func (e *ExternalIdentity) Clone() *ExternalIdentity {
	if e == nil {
		return nil
	}
	cp := *e
	cp.ProviderMeta = maps.Clone(e.ProviderMeta)
	return &cp
}
