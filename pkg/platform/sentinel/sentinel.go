package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors or gate failures.
//
//   - ErrNotFound: row does not exist (or belongs to an inactive customer)
//   - ErrAlreadyUsed: a unique key is already taken (contact value, identifier, nonce)
//   - ErrConflict: concurrent writer changed the row under us
//   - ErrInvalidState: row in the wrong state for the operation (already inactive)
//   - ErrUnavailable: backing store unreachable
//
// Validation failures belong in pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

// ConstraintError names the unique constraint behind an ErrAlreadyUsed so
// callers can tell a value collision from a primary-slot collision.
type ConstraintError struct {
	Constraint string
}

func (e *ConstraintError) Error() string {
	return "unique constraint " + e.Constraint + ": " + ErrAlreadyUsed.Error()
}

func (e *ConstraintError) Unwrap() error { return ErrAlreadyUsed }

// Constraint returns the constraint name carried by err, if any.
func Constraint(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}
