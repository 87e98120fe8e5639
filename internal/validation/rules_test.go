package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/openballot/openballot/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(assert.AnError)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("value"))
	assert.Error(t, NotBlank.Validate(""))
	assert.Error(t, NotBlank.Validate("   "))
	assert.Error(t, NotBlank.Validate("\t\n"))
}

func TestSecretCode(t *testing.T) {
	valid := []string{"ABC234", "XYZ789", "H2K4M9"}
	for _, code := range valid {
		assert.NoError(t, SecretCode.Validate(code), code)
	}

	invalid := []string{
		"",
		"abc234",  // lowercase
		"ABC23",   // too short
		"ABC2345", // too long
		"ABC2O4",  // ambiguous O excluded from alphabet
		"ABC214",  // ambiguous 1 excluded from alphabet
		"AB C34",  // whitespace
	}
	for _, code := range invalid {
		assert.Error(t, SecretCode.Validate(code), code)
	}
}

func TestUUIDString(t *testing.T) {
	assert.NoError(t, UUIDString.Validate("0192a1b2-3c4d-7e5f-8a9b-0c1d2e3f4a5b"))
	assert.Error(t, UUIDString.Validate("not-a-uuid"))
	assert.Error(t, UUIDString.Validate(""))
}
