// Package apperr holds the error taxonomy shared by every stock component.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrParseAmbiguous    = errors.New("code could not be parsed unambiguously")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrInvalidTransition = errors.New("invalid serial status transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
)

// NotFoundError names the missing entity and the key it was looked up by.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// TransitionError reports a serial status change outside the allowed edges.
type TransitionError struct {
	SerialID int64
	From     string
	To       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("serial %d cannot move from %s to %s", e.SerialID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func Ambiguous(code, why string) error {
	return fmt.Errorf("%w: %q: %s", ErrParseAmbiguous, code, why)
}

// TxFailed wraps a store-level abort. The operation must be treated as not applied.
func TxFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransactionFailed, op, err)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
