// Package validation provides custom validation rules for the application.
package validation

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/users/internal/errors"
)

// validationFailedMessage is the message attached to aggregated field errors.
const validationFailedMessage = "Validation failed"

// WrapValidationError converts jellydator validation errors into an *apperrors.ValidationError
// carrying every invalid field, sorted by field name. Internal rule errors are returned unchanged.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}

	var internalErr validation.InternalError
	if apperrors.As(err, &internalErr) {
		return err
	}

	var fieldErrs validation.Errors
	if !apperrors.As(err, &fieldErrs) {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	return apperrors.NewValidationError(validationFailedMessage, FieldErrors(fieldErrs)...)
}

// FieldErrors flattens validation.Errors into a sorted list of field errors.
func FieldErrors(errs validation.Errors) []apperrors.FieldError {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]apperrors.FieldError, 0, len(names))
	for _, name := range names {
		fields = append(fields, apperrors.FieldError{Name: name, Reason: errs[name].Error()})
	}
	return fields
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// TrimmedRuneLength validates the rune count of a string after trimming surrounding whitespace.
// A max of zero means no upper bound.
func TrimmedRuneLength(minLen, maxLen int) validation.StringRule {
	return validation.NewStringRuleWithError(
		func(s string) bool {
			n := utf8.RuneCountInString(strings.TrimSpace(s))
			return n >= minLen && (maxLen == 0 || n <= maxLen)
		},
		validation.NewError("validation_length_out_of_range", "the length is out of range"),
	)
}

// UUID validates that a string is a canonical 36-char hyphenated UUID.
// Braced, urn-prefixed and bare-hex forms are rejected.
var UUID = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) != 36 {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)
