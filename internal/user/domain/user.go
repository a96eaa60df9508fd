// Package domain defines the core user domain entities and types.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Column widths for the free-text fields.
const (
	MaxNameLength       = 100
	MaxProfessionLength = 100
)

// User represents a registered user.
type User struct {
	ID         uuid.UUID
	Name       string
	Email      Email
	TaxID      TaxID
	Profession string
	CreatedAt  time.Time
}

// NewUser builds a validated User from raw input. Email is validated before the tax id,
// and the free-text fields are bounded last. CreatedAt is kept at microsecond precision,
// the finest both stores persist.
func NewUser(name, email, taxID, profession string, now time.Time) (*User, error) {
	normalizedEmail, err := NewEmail(email)
	if err != nil {
		return nil, err
	}

	normalizedTaxID, err := NewTaxID(taxID)
	if err != nil {
		return nil, err
	}

	trimmedName := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmedName) > MaxNameLength {
		return nil, newInvalidFormatError("name", "name must be at most 100 chars")
	}

	trimmedProfession := strings.TrimSpace(profession)
	if utf8.RuneCountInString(trimmedProfession) > MaxProfessionLength {
		return nil, newInvalidFormatError("profession", "profession must be at most 100 chars")
	}

	return &User{
		ID:         uuid.Must(uuid.NewV7()),
		Name:       trimmedName,
		Email:      normalizedEmail,
		TaxID:      normalizedTaxID,
		Profession: trimmedProfession,
		CreatedAt:  now.UTC().Truncate(time.Microsecond),
	}, nil
}

// RestoreUser rebuilds a User from persisted values, re-applying normalization.
// A row that fails validation yields a *CorruptedUserError.
func RestoreUser(
	id uuid.UUID,
	name, email, taxID, profession string,
	createdAt time.Time,
) (*User, error) {
	normalizedEmail, err := NewEmail(email)
	if err != nil {
		return nil, &CorruptedUserError{ID: id.String(), Reason: err.Error()}
	}

	normalizedTaxID, err := NewTaxID(taxID)
	if err != nil {
		return nil, &CorruptedUserError{ID: id.String(), Reason: err.Error()}
	}

	return &User{
		ID:         id,
		Name:       name,
		Email:      normalizedEmail,
		TaxID:      normalizedTaxID,
		Profession: profession,
		CreatedAt:  createdAt.UTC(),
	}, nil
}
