package aih

import (
	"errors"
	"fmt"

	"github.com/guscambraia/aih-v3.5/internal/models"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateRecord     = errors.New("aih number already registered")
	ErrConcurrencyConflict = errors.New("record is being updated by another request")
)

// SequenceViolation is returned when a movement kind breaks the entry/exit alternation.
type SequenceViolation struct {
	Expected models.MovementKind
	Received models.MovementKind
}

func (e *SequenceViolation) Error() string {
	return fmt.Sprintf("invalid movement kind: expected %s, received %s", e.Expected, e.Received)
}

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a failure of the underlying store. Safe to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetryable reports whether err may succeed on a plain retry.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) || errors.Is(err, ErrConcurrencyConflict)
}

// wrapStorage leaves domain errors untouched and marks everything else as a storage failure.
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		sv *SequenceViolation
		ve *ValidationError
		se *StorageError
	)
	switch {
	case errors.As(err, &sv), errors.As(err, &ve), errors.As(err, &se),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicateRecord),
		errors.Is(err, ErrConcurrencyConflict):
		return err
	}
	return &StorageError{Op: op, Err: err}
}
