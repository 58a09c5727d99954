package gates

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"

	"guestman/internal/customer/models"
	id "guestman/pkg/domain"
	"guestman/pkg/platform/sentinel"
	"guestman/pkg/requestcontext"
)

// ContactPointUniqueness (G1) fails when (t, value) already belongs to a
// customer other than exclude. Pass a nil exclude to reject any owner.
func (e *Engine) ContactPointUniqueness(ctx context.Context, t models.ContactType, value string, exclude id.CustomerID) (Result, error) {
	err := e.contactPointUniqueness(ctx, t, value, exclude)
	if err != nil {
		return Result{Gate: G1ContactPointUniqueness}, e.observe(G1ContactPointUniqueness, err)
	}
	return pass(G1ContactPointUniqueness), e.observe(G1ContactPointUniqueness, nil)
}

func (e *Engine) contactPointUniqueness(ctx context.Context, t models.ContactType, value string, exclude id.CustomerID) error {
	normalized := e.normalizer.Normalize(value, t.Kind())
	existing, err := e.contacts.FindByValue(ctx, t, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up contact point: %w", err)
	}
	if !exclude.IsNil() && existing.CustomerID == exclude {
		return nil
	}
	details := map[string]any{
		"existing_customer_id":   existing.CustomerID.String(),
		"existing_customer_code": "",
	}
	if e.customers != nil {
		owner, err := e.customers.FindByID(ctx, existing.CustomerID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("look up contact owner: %w", err)
		}
		if owner != nil {
			details["existing_customer_code"] = owner.Code
		}
	}
	return fail(G1ContactPointUniqueness, "Contact already exists in another customer.", details)
}

// CheckContactPointUniqueness is the bool form of G1.
func (e *Engine) CheckContactPointUniqueness(ctx context.Context, t models.ContactType, value string, exclude id.CustomerID) bool {
	_, err := e.ContactPointUniqueness(ctx, t, value, exclude)
	return e.check(ctx, G1ContactPointUniqueness, err)
}

// PrimaryInvariant (G2) fails when a customer has more than one primary
// contact of a type. The store's partial unique index is the enforcement;
// this is the read-side sanity check.
func (e *Engine) PrimaryInvariant(ctx context.Context, customerID id.CustomerID, t models.ContactType) (Result, error) {
	count, err := e.contacts.CountPrimary(ctx, customerID, t)
	if err != nil {
		return Result{Gate: G2PrimaryInvariant}, e.observe(G2PrimaryInvariant, fmt.Errorf("count primary contacts: %w", err))
	}
	if count > 1 {
		return Result{Gate: G2PrimaryInvariant}, e.observe(G2PrimaryInvariant, fail(G2PrimaryInvariant,
			fmt.Sprintf("Multiple primaries for type '%s'.", t),
			map[string]any{"count": count}))
	}
	return pass(G2PrimaryInvariant), e.observe(G2PrimaryInvariant, nil)
}

// CheckPrimaryInvariant is the bool form of G2.
func (e *Engine) CheckPrimaryInvariant(ctx context.Context, customerID id.CustomerID, t models.ContactType) bool {
	_, err := e.PrimaryInvariant(ctx, customerID, t)
	return e.check(ctx, G2PrimaryInvariant, err)
}

var allowedVerificationMethods = []models.VerificationMethod{
	models.VerificationChannelAsserted,
	models.VerificationEmailLink,
	models.VerificationManual,
	models.VerificationOTPSMS,
	models.VerificationOTPWhatsApp,
}

// AllowedVerificationMethods lists the methods G3 accepts, sorted.
func AllowedVerificationMethods() []string {
	out := make([]string, len(allowedVerificationMethods))
	for i, m := range allowedVerificationMethods {
		out[i] = string(m)
	}
	sort.Strings(out)
	return out
}

// VerifiedTransition (G3) fails unless method is an accepted verification method.
func (e *Engine) VerifiedTransition(method models.VerificationMethod) (Result, error) {
	if !slices.Contains(allowedVerificationMethods, method) {
		return Result{Gate: G3VerifiedTransition}, e.observe(G3VerifiedTransition, fail(G3VerifiedTransition,
			"Verification method not allowed: "+string(method),
			map[string]any{"allowed": AllowedVerificationMethods()}))
	}
	return pass(G3VerifiedTransition), e.observe(G3VerifiedTransition, nil)
}

// CheckVerifiedTransition is the bool form of G3.
func (e *Engine) CheckVerifiedTransition(method models.VerificationMethod) bool {
	_, err := e.VerifiedTransition(method)
	return err == nil
}

// ReplayProtection (G5) records nonce in the ledger. A nonce seen before
// fails as a replay; an empty nonce fails without touching the ledger.
func (e *Engine) ReplayProtection(ctx context.Context, nonce, provider string) (Result, error) {
	if nonce == "" {
		return Result{Gate: G5ReplayProtection}, e.observe(G5ReplayProtection,
			fail(G5ReplayProtection, "Nonce is required.", nil))
	}
	err := e.ledger.Record(ctx, nonce, provider, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return Result{Gate: G5ReplayProtection}, e.observe(G5ReplayProtection, fail(G5ReplayProtection,
				"Replay detected: event already processed.",
				map[string]any{"nonce": nonce, "provider": provider}))
		}
		return Result{Gate: G5ReplayProtection}, e.observe(G5ReplayProtection, fmt.Errorf("record nonce: %w", err))
	}
	return pass(G5ReplayProtection), e.observe(G5ReplayProtection, nil)
}

// CheckReplayProtection is the bool form of G5. It still records the nonce.
func (e *Engine) CheckReplayProtection(ctx context.Context, nonce, provider string) bool {
	_, err := e.ReplayProtection(ctx, nonce, provider)
	return e.check(ctx, G5ReplayProtection, err)
}

// IsReplay reports whether nonce was already processed without recording it.
func (e *Engine) IsReplay(ctx context.Context, nonce string) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	return e.ledger.Exists(ctx, nonce)
}

// Merge evidence keys accepted by G6.
const (
	EvidenceStaffOverride        = "staff_override"
	EvidenceSameVerifiedPhone    = "same_verified_phone"
	EvidenceSameVerifiedEmail    = "same_verified_email"
	EvidenceSameVerifiedWhatsApp = "same_verified_whatsapp"
)

var mergeEvidenceKeys = []string{
	EvidenceSameVerifiedEmail,
	EvidenceSameVerifiedPhone,
	EvidenceSameVerifiedWhatsApp,
	EvidenceStaffOverride,
}

// MergeSafety (G6) is the precondition for merging source into target: the
// two must differ and at least one evidence key must be truthy.
func (e *Engine) MergeSafety(sourceID, targetID id.CustomerID, evidence map[string]any) (Result, error) {
	if sourceID == targetID {
		return Result{Gate: G6MergeSafety}, e.observe(G6MergeSafety,
			fail(G6MergeSafety, "Cannot merge customer into itself.", nil))
	}
	for _, key := range mergeEvidenceKeys {
		if truthy(evidence[key]) {
			return pass(G6MergeSafety), e.observe(G6MergeSafety, nil)
		}
	}
	provided := make([]string, 0, len(evidence))
	for key := range evidence {
		provided = append(provided, key)
	}
	sort.Strings(provided)
	return Result{Gate: G6MergeSafety}, e.observe(G6MergeSafety, fail(G6MergeSafety,
		"Insufficient evidence for merge.",
		map[string]any{
			"required_one_of": slices.Clone(mergeEvidenceKeys),
			"provided":        provided,
		}))
}

// CheckMergeSafety is the bool form of G6.
func (e *Engine) CheckMergeSafety(sourceID, targetID id.CustomerID, evidence map[string]any) bool {
	_, err := e.MergeSafety(sourceID, targetID, evidence)
	return err == nil
}

// truthy treats nil, false, zero numbers, empty strings and empty
// collections as false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
