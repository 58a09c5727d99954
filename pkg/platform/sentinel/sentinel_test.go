package sentinel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintErrorUnwrapsToAlreadyUsed(t *testing.T) {
	err := fmt.Errorf("insert contact point: %w", &ConstraintError{Constraint: "uq_contact_points_primary"})

	assert.ErrorIs(t, err, ErrAlreadyUsed)
	assert.Equal(t, "uq_contact_points_primary", Constraint(err))
	assert.Empty(t, Constraint(ErrNotFound))
}
