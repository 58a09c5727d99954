package identity

import (
	"encoding/json"
	"strconv"
	"strings"

	"guestman/internal/customer/models"
	"guestman/pkg/contact"
)

// Subscriber is a chat-bot platform contact as delivered by its webhook.
type Subscriber struct {
	ID           string
	FirstName    string
	LastName     string
	Phone        string
	Email        string
	InstagramID  string
	InstagramTag string
	FacebookID   string
	WhatsApp     string
	TelegramID   string
	CustomFields map[string]any
}

// SubscriberFromMap reads a decoded webhook payload. Ids may arrive as JSON
// strings or numbers.
func SubscriberFromMap(m map[string]any) Subscriber {
	sub := Subscriber{
		ID:           stringValue(m["id"]),
		FirstName:    stringValue(m["first_name"]),
		LastName:     stringValue(m["last_name"]),
		Phone:        stringValue(m["phone"]),
		Email:        stringValue(m["email"]),
		InstagramID:  stringValue(m["ig_id"]),
		InstagramTag: stringValue(m["ig_username"]),
		FacebookID:   stringValue(m["fb_id"]),
		WhatsApp:     stringValue(m["wa_phone"]),
		TelegramID:   stringValue(m["tg_id"]),
	}
	if fields, ok := m["custom_fields"].(map[string]any); ok {
		sub.CustomFields = fields
	}
	return sub
}

// stringValue renders scalars the way they appear in the payload. Numbers
// keep their integer form so 12345 becomes "12345", not "12345.0".
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// subscriberKeys holds the normalized identifiers of a subscriber.
type subscriberKeys struct {
	id        string
	phone     string
	email     string
	whatsapp  string
	instagram string
	facebook  string
	telegram  string
}

func (s Subscriber) keys(n *contact.Normalizer) subscriberKeys {
	return subscriberKeys{
		id:        strings.TrimSpace(s.ID),
		phone:     n.Phone(s.Phone),
		email:     contact.Email(s.Email),
		whatsapp:  n.Phone(s.WhatsApp),
		instagram: n.Normalize(s.InstagramID, contact.KindInstagram),
		facebook:  strings.TrimSpace(s.FacebookID),
		telegram:  strings.TrimSpace(s.TelegramID),
	}
}

type keyedIdentifier struct {
	kind    models.IdentifierType
	value   string
	primary bool
}

// identifiers lists the subscriber's identifiers in lookup priority order.
func (k subscriberKeys) identifiers() []keyedIdentifier {
	all := []keyedIdentifier{
		{models.IdentifierBot, k.id, true},
		{models.IdentifierPhone, k.phone, false},
		{models.IdentifierEmail, k.email, false},
		{models.IdentifierWhatsApp, k.whatsapp, false},
		{models.IdentifierInstagram, k.instagram, false},
		{models.IdentifierFacebook, k.facebook, false},
		{models.IdentifierTelegram, k.telegram, false},
	}
	out := all[:0]
	for _, ki := range all {
		if ki.value != "" {
			out = append(out, ki)
		}
	}
	return out
}
