// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/google/uuid"

	apperrors "github.com/openballot/openballot/internal/errors"
)

var (
	// secretCodeRegex matches 6-character codes from the issuance alphabet
	// (uppercase letters and digits, ambiguous characters excluded).
	secretCodeRegex = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{6}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// SecretCode validates the 6-character secret code format.
var SecretCode = validation.NewStringRuleWithError(
	func(s string) bool {
		return secretCodeRegex.MatchString(s)
	},
	validation.NewError("validation_secret_code", "must be a 6-character code"),
)

// UUIDString validates that a string parses as a UUID.
var UUIDString = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)
