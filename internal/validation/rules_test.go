package validation

import (
	"errors"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/users/internal/errors"
)

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{name: "valid value", value: "Ana", shouldErr: false},
		{name: "empty is left to Required", value: "", shouldErr: false},
		{name: "only spaces", value: "   ", shouldErr: true},
		{name: "tabs and newlines", value: "\t\n", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, NotBlank)
			if tt.shouldErr {
				assert.EqualError(t, err, "must not be blank")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUUID(t *testing.T) {
	assert.NoError(t, validation.Validate("3c6b8f5a-3f1d-4a18-bb3c-c3ea2b0f6b9a", UUID))
	assert.NoError(t, validation.Validate("", UUID))
	assert.EqualError(t, validation.Validate("not-a-uuid", UUID), "must be a valid UUID")

	for _, alt := range []string{
		"{3c6b8f5a-3f1d-4a18-bb3c-c3ea2b0f6b9a}",
		"urn:uuid:3c6b8f5a-3f1d-4a18-bb3c-c3ea2b0f6b9a",
		"3c6b8f5a3f1d4a18bb3cc3ea2b0f6b9a",
	} {
		assert.EqualError(t, validation.Validate(alt, UUID), "must be a valid UUID", alt)
	}
}

func TestTrimmedRuneLength(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		rule      validation.StringRule
		shouldErr bool
	}{
		{name: "within range", value: "Ana", rule: TrimmedRuneLength(2, 5), shouldErr: false},
		{name: "surrounding spaces are not counted", value: " A ", rule: TrimmedRuneLength(2, 5), shouldErr: true},
		{name: "multibyte runes counted once", value: "ááááá", rule: TrimmedRuneLength(2, 5), shouldErr: false},
		{name: "above max", value: "abcdef", rule: TrimmedRuneLength(2, 5), shouldErr: true},
		{name: "padding does not push over max", value: "  abcde  ", rule: TrimmedRuneLength(2, 5), shouldErr: false},
		{name: "zero max is unbounded", value: "abcdefghij", rule: TrimmedRuneLength(2, 0), shouldErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, tt.rule)
			if tt.shouldErr {
				assert.EqualError(t, err, "the length is out of range")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type sampleRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestWrapValidationError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("AggregatesAllFieldsSorted", func(t *testing.T) {
		req := sampleRequest{}
		err := validation.ValidateStruct(&req,
			validation.Field(&req.Name, validation.Required.Error("name is required")),
			validation.Field(&req.Email, validation.Required.Error("email is required")),
		)
		require.Error(t, err)

		wrapped := WrapValidationError(err)

		assert.True(t, apperrors.Is(wrapped, apperrors.ErrInvalidInput))
		var validationErr *apperrors.ValidationError
		require.True(t, apperrors.As(wrapped, &validationErr))
		assert.Equal(t, "Validation failed", validationErr.Message)
		assert.Equal(t, []apperrors.FieldError{
			{Name: "email", Reason: "email is required"},
			{Name: "name", Reason: "name is required"},
		}, validationErr.Fields)
	})

	t.Run("PlainErrorBecomesInvalidInput", func(t *testing.T) {
		wrapped := WrapValidationError(errors.New("boom"))

		assert.True(t, apperrors.Is(wrapped, apperrors.ErrInvalidInput))
		assert.Contains(t, wrapped.Error(), "boom")
	})

	t.Run("InternalErrorIsKept", func(t *testing.T) {
		internal := validation.NewInternalError(errors.New("bad rule"))

		wrapped := WrapValidationError(internal)

		assert.False(t, apperrors.Is(wrapped, apperrors.ErrInvalidInput))
		assert.Equal(t, internal, wrapped)
	})
}
