package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a finite positive number")
	ErrInvalidAllowance  = errors.New("allowance must be a finite non-negative number")
	ErrNotWholeAllowance = errors.New("allowance must be a whole number")
	ErrInvalidDate       = errors.New("date cannot be zero")
	ErrMissingID         = errors.New("missing id")
	ErrNameTooLong       = errors.New("name too long (max 100 characters)")
	ErrNotConfirmed      = errors.New("destructive operation not confirmed")
)

// ValidationError reports malformed or out-of-range input. It is always
// returned to the caller; invalid input is never coerced to a default.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports an operation on an id the ledger does not hold.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// PersistenceError wraps a failed storage read or write. In-memory state is
// not rolled back when a write fails.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
