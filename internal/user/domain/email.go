package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxEmailLength matches the width of the email column.
const MaxEmailLength = 120

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

// Email is a normalized (trimmed, lower-cased) email address.
type Email struct {
	value string
}

// NewEmail normalizes and validates a raw email address.
func NewEmail(raw string) (Email, error) {
	normalized := NormalizeEmail(raw)
	if normalized == "" {
		return Email{}, newInvalidFormatError("email", "email is required")
	}
	if utf8.RuneCountInString(normalized) > MaxEmailLength {
		return Email{}, newInvalidFormatError("email", "email must be at most 120 chars")
	}
	if !emailRegex.MatchString(normalized) {
		return Email{}, newInvalidFormatError("email", "email is invalid")
	}
	return Email{value: normalized}, nil
}

// NormalizeEmail trims and lower-cases a raw email without validating it.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// String returns the normalized email.
func (e Email) String() string {
	return e.value
}

// Equals reports whether both emails have the same normalized value.
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// IsZero reports whether the email was never constructed.
func (e Email) IsZero() bool {
	return e.value == ""
}
