package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching against the typed errors below.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrCorruptSnapshot  = errors.New("corrupt snapshot")
	// ErrKeyNotFound is returned by KeyValueStore.Get when nothing is stored under the key.
	ErrKeyNotFound = errors.New("key not found")
)

// ValidationError reports bad user input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned when a parameter lookup misses.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("parameter %s not found", e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnknownParameterError is returned when a measurement references an
// unregistered parameter id.
type UnknownParameterError struct {
	ID string
}

func (e UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %s", e.ID)
}

// Is matches ErrUnknownParameter and ErrNotFound.
func (e UnknownParameterError) Is(target error) bool {
	return target == ErrUnknownParameter || target == ErrNotFound
}

// CorruptSnapshotError reports persisted data that could not be decoded.
type CorruptSnapshotError struct {
	Key string
	Err error
}

func (e *CorruptSnapshotError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupt snapshot %s", e.Key)
	}
	return fmt.Sprintf("corrupt snapshot %s: %v", e.Key, e.Err)
}

// Unwrap exposes the decode failure.
func (e *CorruptSnapshotError) Unwrap() error { return e.Err }

// Is matches ErrCorruptSnapshot.
func (e *CorruptSnapshotError) Is(target error) bool { return target == ErrCorruptSnapshot }

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
