package domain

import (
	"fmt"

	"github.com/allisson/users/internal/errors"
)

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound error = notFoundError("user not found")

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

func (e notFoundError) Unwrap() error { return errors.ErrNotFound }

// InvalidFormatError is returned when a raw value cannot be turned into a valid identity value.
type InvalidFormatError struct {
	Field  string
	Reason string
}

func newInvalidFormatError(field, reason string) *InvalidFormatError {
	return &InvalidFormatError{Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return e.Reason
}

// Unwrap returns errors.ErrInvalidInput.
func (e *InvalidFormatError) Unwrap() error {
	return errors.ErrInvalidInput
}

// FieldErrors exposes the failing field so the transport can render it.
func (e *InvalidFormatError) FieldErrors() []errors.FieldError {
	return []errors.FieldError{{Name: e.Field, Reason: e.Reason}}
}

// CorruptedUserError is returned when a persisted row no longer holds valid identity values.
// It does not unwrap to errors.ErrInvalidInput, so callers treat it as an internal failure.
type CorruptedUserError struct {
	ID     string
	Reason string
}

// Error implements the error interface.
func (e *CorruptedUserError) Error() string {
	return fmt.Sprintf("stored user %s is corrupted: %s", e.ID, e.Reason)
}

// EmailAlreadyUsedError indicates another user is registered with the same email.
type EmailAlreadyUsedError struct {
	Email string
}

// Error implements the error interface.
func (e *EmailAlreadyUsedError) Error() string {
	return fmt.Sprintf("email already used: %s", e.Email)
}

// Unwrap returns errors.ErrConflict.
func (e *EmailAlreadyUsedError) Unwrap() error {
	return errors.ErrConflict
}

// TaxIDAlreadyUsedError indicates another user is registered with the same CPF.
type TaxIDAlreadyUsedError struct {
	TaxID string
}

// Error implements the error interface.
func (e *TaxIDAlreadyUsedError) Error() string {
	return fmt.Sprintf("CPF already used: %s", e.TaxID)
}

// Unwrap returns errors.ErrConflict.
func (e *TaxIDAlreadyUsedError) Unwrap() error {
	return errors.ErrConflict
}

// ConflictError is returned by repositories when the store rejects an insert because of a
// uniqueness constraint the pre-checks did not catch.
type ConflictError struct {
	Constraint string
	Err        error
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Constraint == "" {
		return "user violates a uniqueness constraint"
	}
	return fmt.Sprintf("user violates uniqueness constraint %s", e.Constraint)
}

// Unwrap returns errors.ErrConstraintViolation and the driver error, if any.
func (e *ConflictError) Unwrap() []error {
	if e.Err == nil {
		return []error{errors.ErrConstraintViolation}
	}
	return []error{errors.ErrConstraintViolation, e.Err}
}
