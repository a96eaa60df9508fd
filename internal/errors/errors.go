// Package errors holds the domain error vocabulary shared by every module. Use cases return
// these sentinels (possibly wrapped) and the HTTP and CLI layers translate them.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested user or event does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness check failed before anything was written.
	ErrConflict = errors.New("conflict")

	// ErrConstraintViolation means the database rejected a write on a unique index.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidInput means a request failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError names one invalid field and why it was rejected.
type FieldError struct {
	Name   string
	Reason string
}

// ValidationError carries every field violation of a request. errors.Is(err, ErrInvalidInput) holds.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

// NewValidationError builds a ValidationError from a message and its field violations.
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// FieldErrors returns the invalid fields in the order they were reported.
func (e *ValidationError) FieldErrors() []FieldError { return e.Fields }

// New is errors.New.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, keeping it matchable with Is and As. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
