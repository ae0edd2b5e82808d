package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string  `json:"email" validate:"required,email"`
	Kind   string  `json:"kind" validate:"oneof=SAVINGS CURRENT"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Hidden string  `json:"-" validate:"required"`
}

func TestStructUsesJSONNames(t *testing.T) {
	err := Struct(sample{Email: "nope", Kind: "GOLD", Amount: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("email"))
	assert.True(t, verr.Has("kind"))
	assert.True(t, verr.Has("amount"))
	assert.Equal(t, "kind must be one of SAVINGS CURRENT", verr.Errors["kind"])
	assert.Contains(t, err.Error(), "validation failed:")
}

func TestStructAcceptsValid(t *testing.T) {
	require.NoError(t, Struct(sample{Email: "a@b.com", Kind: "SAVINGS", Hidden: "x"}))
}
