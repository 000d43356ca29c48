package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalid(t *testing.T) {
	require.NoError(t, Invalid())

	err := Invalid("email is invalid", "password is too short")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Problems, 2)
	require.Equal(t, "email is invalid; password is too short", err.Error())
}

func TestConflict_UnwrapsToAlreadyExists(t *testing.T) {
	err := fmt.Errorf("provision: %w", Conflict("user is already a member of this center"))
	require.ErrorIs(t, err, ErrAlreadyExists)

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "user is already a member of this center", ce.Message)
}
