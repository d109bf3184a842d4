package main

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is wrapped by every InputError so callers can test with errors.Is.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedBrackets is returned when a bracket table is not contiguous from 0 to an unbounded top.
	ErrMalformedBrackets = errors.New("malformed bracket table")

	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// InputError names the offending field of a calculation request.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
