package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the category for rejected writes. Nothing is mutated when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrLocked is returned when a mutation targets a locked experiment.
	ErrLocked = errors.New("experiment is locked")

	// ErrNotFound is the category for references to records that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrResultRequired is returned by Complete when a result is required but missing.
	ErrResultRequired = &ValidationError{Field: "result", Reason: "an outcome must be selected before completing"}
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RangeError is returned when a dimension score falls outside the dimension's bounds.
type RangeError struct {
	DimensionID string
	Value       int
	Min         int
	Max         int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("score %d for dimension %q is outside [%d, %d]", e.Value, e.DimensionID, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrValidation }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
