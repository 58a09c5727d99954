package gates

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const signaturePrefix = "sha256="

// Sign returns the "sha256=<hex>" HMAC-SHA256 signature of body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// ProviderEventAuthenticity (G4) verifies the HMAC-SHA256 signature of a
// webhook body. The "sha256=" prefix is optional and hex is compared
// case-insensitively in constant time. A non-zero timestamp must be within
// maxAge of now; maxAge <= 0 means DefaultMaxAge.
//
// An empty secret passes every payload and logs a warning. This is the dev
// mode policy and must be configured away in production.
func (e *Engine) ProviderEventAuthenticity(ctx context.Context, body []byte, signature, secret string, timestamp time.Time, maxAge time.Duration) (Result, error) {
	if secret == "" {
		e.logger.WarnContext(ctx, "webhook secret is empty, accepting payload without signature validation (dev mode)",
			"gate", G4ProviderEventAuthenticity)
		e.metrics.IncrementOutcome(string(G4ProviderEventAuthenticity), "skipped")
		return Result{Passed: true, Gate: G4ProviderEventAuthenticity, Message: "No secret configured (skipped)"}, nil
	}
	err := e.providerEventAuthenticity(body, signature, secret, timestamp, maxAge)
	if err != nil {
		return Result{Gate: G4ProviderEventAuthenticity}, e.observe(G4ProviderEventAuthenticity, err)
	}
	return pass(G4ProviderEventAuthenticity), e.observe(G4ProviderEventAuthenticity, nil)
}

func (e *Engine) providerEventAuthenticity(body []byte, signature, secret string, timestamp time.Time, maxAge time.Duration) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fail(G4ProviderEventAuthenticity, "Missing signature header.", nil)
	}
	if len(signature) >= len(signaturePrefix) && strings.EqualFold(signature[:len(signaturePrefix)], signaturePrefix) {
		signature = signature[len(signaturePrefix):]
	}
	expected := strings.TrimPrefix(Sign(body, secret), signaturePrefix)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return fail(G4ProviderEventAuthenticity, "Invalid signature.", nil)
	}

	if timestamp.IsZero() {
		return nil
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	age := e.clock().Sub(timestamp)
	if age < 0 {
		age = -age
	}
	ageSeconds := int64(age / time.Second)
	if age > maxAge {
		return fail(G4ProviderEventAuthenticity,
			fmt.Sprintf("Timestamp too old (%ds > %ds).", ageSeconds, int64(maxAge/time.Second)),
			map[string]any{"age_seconds": ageSeconds})
	}
	return nil
}

// CheckProviderEventAuthenticity is the bool form of G4.
func (e *Engine) CheckProviderEventAuthenticity(ctx context.Context, body []byte, signature, secret string, timestamp time.Time, maxAge time.Duration) bool {
	_, err := e.ProviderEventAuthenticity(ctx, body, signature, secret, timestamp, maxAge)
	return err == nil
}
