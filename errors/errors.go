/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a replace or delete targets a row that does not exist.
	// Point lookups do not use it; a missing row reads back as a nil result.
	ErrNotFound = errors.New("row not found")

	// ErrAlreadyExists is returned when an insert targets a key that is already occupied.
	ErrAlreadyExists = errors.New("row already exists")

	// ErrConflict is returned when a version tag does not match the stored row.
	ErrConflict = errors.New("concurrency conflict")

	// ErrThrottled is the transient rate-limiting signal raised by a store provider.
	// It is the only error class the retry executor will retry.
	ErrThrottled = errors.New("request throttled")

	// ErrThrottleExhausted is returned when the retry budget runs out against
	// sustained throttling.
	ErrThrottleExhausted = errors.New("throttle retry budget exhausted")

	// ErrUnsupportedExpression is returned when a predicate or selector uses a
	// construct outside the translatable grammar.
	ErrUnsupportedExpression = errors.New("unsupported expression")

	// ErrBatchTooLarge is returned when a single batch submission exceeds the
	// store's operation limit.
	ErrBatchTooLarge = errors.New("batch exceeds operation limit")

	// ErrMixedPartitions is returned when a batch submission spans more than one
	// partition key.
	ErrMixedPartitions = errors.New("batch spans multiple partitions")

	// ErrNoKeyMap is returned when no key map is registered for a type.
	ErrNoKeyMap = errors.New("no key map registered for type")
)

// NotFoundError identifies the missing row of a failed replace or delete.
type NotFoundError struct {
	PartitionKey string
	RowKey       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("row (%q, %q) not found", e.PartitionKey, e.RowKey)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError identifies the occupied key of a failed insert.
type AlreadyExistsError struct {
	PartitionKey string
	RowKey       string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("row (%q, %q) already exists", e.PartitionKey, e.RowKey)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ConflictError reports a version-tag mismatch on a replace or delete.
// Conflicting writes are never retried; the caller decides how to reconcile.
type ConflictError struct {
	PartitionKey string
	RowKey       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version tag mismatch for row (%q, %q)", e.PartitionKey, e.RowKey)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ThrottleExhaustedError is the terminal failure after the configured number
// of throttled attempts.
type ThrottleExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ThrottleExhaustedError) Error() string {
	return fmt.Sprintf("throttle retry budget exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ThrottleExhaustedError) Is(target error) bool {
	return target == ErrThrottleExhausted
}

func (e *ThrottleExhaustedError) Unwrap() error {
	return e.Last
}

// UnsupportedExpressionError reports the construct that could not be translated.
type UnsupportedExpressionError struct {
	Construct string
	Detail    string
}

func (e *UnsupportedExpressionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unsupported expression %s: %s", e.Construct, e.Detail)
	}
	return fmt.Sprintf("unsupported expression %s", e.Construct)
}

func (e *UnsupportedExpressionError) Is(target error) bool {
	return target == ErrUnsupportedExpression
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(partitionKey, rowKey string) error {
	return &NotFoundError{PartitionKey: partitionKey, RowKey: rowKey}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(partitionKey, rowKey string) error {
	return &AlreadyExistsError{PartitionKey: partitionKey, RowKey: rowKey}
}

// NewConflictError creates a new ConflictError
func NewConflictError(partitionKey, rowKey string) error {
	return &ConflictError{PartitionKey: partitionKey, RowKey: rowKey}
}

// NewThrottleExhaustedError creates a new ThrottleExhaustedError
func NewThrottleExhaustedError(attempts int, last error) error {
	return &ThrottleExhaustedError{Attempts: attempts, Last: last}
}

// NewUnsupportedExpressionError creates a new UnsupportedExpressionError
func NewUnsupportedExpressionError(construct, detail string) error {
	return &UnsupportedExpressionError{Construct: construct, Detail: detail}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConflict checks if an error is a concurrency conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsThrottled checks if an error carries the transient throttling signal
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsThrottleExhausted checks if an error is a terminal throttling failure
func IsThrottleExhausted(err error) bool {
	return errors.Is(err, ErrThrottleExhausted)
}

// IsUnsupportedExpression checks if an error is a translation failure
func IsUnsupportedExpression(err error) bool {
	return errors.Is(err, ErrUnsupportedExpression)
}
