package library

import (
	"errors"
	"fmt"
)

// Causes wrapped by StateError.
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrMemberIneligible = errors.New("member cannot borrow")
	ErrNoCopyAvailable  = errors.New("no copy available")
	ErrLoanReturned     = errors.New("loan already returned")
	ErrLoanNotFound     = errors.New("loan not issued by this library")
)

// ValidationError reports a missing or malformed argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StateError reports an operation that the current state does not allow.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StateError) Unwrap() error { return e.Err }

func stateErr(op string, err error) error {
	return &StateError{Op: op, Err: err}
}
