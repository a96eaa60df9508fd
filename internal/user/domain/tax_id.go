package domain

import (
	"strings"
	"unicode"
)

// taxIDLength is the number of digits in a CPF.
const taxIDLength = 11

// TaxID is a Brazilian CPF stored as its 11 digits.
//
// Only the digit count is checked; verifier digits are not validated.
type TaxID struct {
	digits string
}

// NewTaxID strips every non-digit character from raw and validates the digit count.
func NewTaxID(raw string) (TaxID, error) {
	if strings.TrimSpace(raw) == "" {
		return TaxID{}, newInvalidFormatError("cpf", "cpf is required")
	}
	digits := NormalizeTaxID(raw)
	if len(digits) != taxIDLength {
		return TaxID{}, newInvalidFormatError("cpf", "cpf must have 11 digits")
	}
	return TaxID{digits: digits}, nil
}

// NormalizeTaxID returns only the ASCII digits of raw.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// String returns the 11 digits.
func (t TaxID) String() string {
	return t.digits
}

// Equals reports whether both tax ids have the same digits.
func (t TaxID) Equals(other TaxID) bool {
	return t.digits == other.digits
}

// IsZero reports whether the tax id was never constructed.
func (t TaxID) IsZero() bool {
	return t.digits == ""
}
