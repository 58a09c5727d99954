// Package contact canonicalizes contact values (phones, emails, social handles)
// so equality lookups and uniqueness constraints work on one representation.
//
// Phones are returned as digits only, country code first, without "+".
// An input written with "+" that parses as a valid number for its country
// code keeps that country code. Everything else is matched on digit shape:
// ten and eleven digit inputs shaped like a Brazilian local number get the
// "55" country code prepended, and anything else keeps its digits as given.
package contact

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Kind selects the normalization rule.
type Kind string

const (
	KindPhone     Kind = "phone"
	KindWhatsApp  Kind = "whatsapp"
	KindEmail     Kind = "email"
	KindInstagram Kind = "instagram"
	KindOther     Kind = "other"
)

// RegionBR is the only region with local expansion rules.
const RegionBR = "BR"

// BrazilCountryCode is prepended to Brazilian local numbers.
const BrazilCountryCode = "55"

// Brazilian two-digit area codes (DDD).
var brazilAreaCodes = map[string]struct{}{}

func init() {
	for _, ddd := range []string{
		"11", "12", "13", "14", "15", "16", "17", "18", "19",
		"21", "22", "24", "27", "28",
		"31", "32", "33", "34", "35", "37", "38",
		"41", "42", "43", "44", "45", "46", "47", "48", "49",
		"51", "53", "54", "55",
		"61", "62", "63", "64", "65", "66", "67", "68", "69",
		"71", "73", "74", "75", "77", "79",
		"81", "82", "83", "84", "85", "86", "87", "88", "89",
		"91", "92", "93", "94", "95", "96", "97", "98", "99",
	} {
		brazilAreaCodes[ddd] = struct{}{}
	}
}

// Normalizer applies region-aware rules. The zero value performs no local
// expansion; use New or Default for Brazilian numbers.
type Normalizer struct {
	region string
}

// New builds a Normalizer for the given default region ("BR" enables local expansion).
func New(region string) *Normalizer {
	return &Normalizer{region: strings.ToUpper(strings.TrimSpace(region))}
}

var defaultNormalizer = New(RegionBR)

// Default returns the process-wide Brazilian normalizer.
func Default() *Normalizer { return defaultNormalizer }

// Normalize dispatches on kind. It never fails; unusable input yields "".
func (n *Normalizer) Normalize(raw string, kind Kind) string {
	switch kind {
	case KindPhone, KindWhatsApp:
		return n.Phone(raw)
	case KindEmail:
		return Email(raw)
	case KindInstagram:
		return Handle(raw)
	default:
		return strings.TrimSpace(raw)
	}
}

// Phone returns raw as country-code-first digits.
func (n *Normalizer) Phone(raw string) string {
	digits := DigitsOnly(raw)
	if digits == "" {
		return ""
	}
	if international, ok := internationalDigits(raw); ok {
		return international
	}
	if n.region == RegionBR && isBrazilianLocal(digits) {
		return BrazilCountryCode + digits
	}
	return digits
}

// internationalDigits returns the E.164 digits of a "+"-prefixed number that
// is valid for its country code. Invalid ones, such as a bot payload that
// put "+" in front of a bare Brazilian DDD, fall through to digit shape.
func internationalDigits(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "+") {
		return "", false
	}
	num, err := phonenumbers.Parse(trimmed, phonenumbers.UNKNOWN_REGION)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+"), true
}

// isBrazilianLocal reports whether digits look like DDD + subscriber number:
// eleven digits with a mobile subscriber (leading 9) or ten digits with a
// landline subscriber (leading 2-5).
func isBrazilianLocal(digits string) bool {
	if len(digits) != 10 && len(digits) != 11 {
		return false
	}
	if _, ok := brazilAreaCodes[digits[:2]]; !ok {
		return false
	}
	first := digits[2]
	if len(digits) == 11 {
		return first == '9'
	}
	return first >= '2' && first <= '5'
}

// Normalize applies the default normalizer.
func Normalize(raw string, kind Kind) string {
	return defaultNormalizer.Normalize(raw, kind)
}

// Phone applies the default normalizer to a phone number.
func Phone(raw string) string {
	return defaultNormalizer.Phone(raw)
}

// Email trims and lowercases.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Handle canonicalizes a social handle: no leading "@", lowercase, [a-z0-9._] only.
func Handle(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = strings.TrimLeft(h, "@")
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly strips every non-digit rune. Used for documents (CPF/CNPJ) too.
func DigitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mask hides most of a normalized value for logs and listings.
func Mask(kind Kind, value string) string {
	if kind == KindEmail {
		local, domain, ok := strings.Cut(value, "@")
		if !ok || strings.Contains(domain, "@") {
			return "***@***"
		}
		if len(local) > 2 {
			return local[:1] + "***" + local[len(local)-1:] + "@" + domain
		}
		return "***@" + domain
	}
	if len(value) > 4 {
		return "***" + value[len(value)-4:]
	}
	return "****"
}
