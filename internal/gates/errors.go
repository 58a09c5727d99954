package gates

import (
	"errors"
	"fmt"
)

// Name identifies a gate. Callers branch on it.
type Name string

const (
	G1ContactPointUniqueness    Name = "G1_ContactPointUniqueness"
	G2PrimaryInvariant          Name = "G2_PrimaryInvariant"
	G3VerifiedTransition        Name = "G3_VerifiedTransition"
	G4ProviderEventAuthenticity Name = "G4_ProviderEventAuthenticity"
	G5ReplayProtection          Name = "G5_ReplayProtection"
	G6MergeSafety               Name = "G6_MergeSafety"
)

// Result is a passed gate evaluation. Failures are returned as *GateError.
type Result struct {
	Passed  bool
	Gate    Name
	Message string
}

func pass(gate Name) Result {
	return Result{Passed: true, Gate: gate}
}

// GateError is an expected, caller-recoverable business-rule violation.
type GateError struct {
	Gate    Name
	Message string
	Details map[string]any
}

func (e *GateError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Gate, e.Message)
}

func fail(gate Name, message string, details map[string]any) *GateError {
	if details == nil {
		details = map[string]any{}
	}
	return &GateError{Gate: gate, Message: message, Details: details}
}

// AsGateError extracts a *GateError from err's chain.
func AsGateError(err error) (*GateError, bool) {
	var gateErr *GateError
	if errors.As(err, &gateErr) {
		return gateErr, true
	}
	return nil, false
}

// IsGate reports whether err is a failure of the named gate.
func IsGate(err error, gate Name) bool {
	gateErr, ok := AsGateError(err)
	return ok && gateErr.Gate == gate
}
