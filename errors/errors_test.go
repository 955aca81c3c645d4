/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictError(t *testing.T) {
	err := NewConflictError("PLAYER#42", "PROFILE")

	expected := `version tag mismatch for row ("PLAYER#42", "PROFILE")`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}

	if !IsConflict(err) {
		t.Error("IsConflict should return true for ConflictError")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("PLAYER#42", "PROFILE")

	expected := `row ("PLAYER#42", "PROFILE") not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestThrottleExhaustedError(t *testing.T) {
	cause := fmt.Errorf("wrapped: %w", ErrThrottled)
	err := NewThrottleExhaustedError(25, cause)

	expected := "throttle retry budget exhausted after 25 attempts: wrapped: request throttled"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsThrottleExhausted(err) {
		t.Error("IsThrottleExhausted should return true for ThrottleExhaustedError")
	}

	// The last throttle signal stays reachable through Unwrap.
	if !IsThrottled(err) {
		t.Error("ThrottleExhaustedError should unwrap to the throttled cause")
	}
}

func TestUnsupportedExpressionError(t *testing.T) {
	tests := []struct {
		name      string
		construct string
		detail    string
		expected  string
	}{
		{
			name:      "with detail",
			construct: "method call",
			detail:    "ToUpper is not translatable",
			expected:  "unsupported expression method call: ToUpper is not translatable",
		},
		{
			name:      "without detail",
			construct: "nested selector",
			expected:  "unsupported expression nested selector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUnsupportedExpressionError(tt.construct, tt.detail)

			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}

			if !IsUnsupportedExpression(err) {
				t.Error("IsUnsupportedExpression should return true for UnsupportedExpressionError")
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	original := NewConflictError("P", "R")
	wrapped := fmt.Errorf("replace failed: %w", original)

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("Wrapped ConflictError should still match ErrConflict")
	}

	if !IsConflict(wrapped) {
		t.Error("IsConflict should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	// Ensure sentinel errors are distinct
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrConflict,
		ErrThrottled,
		ErrThrottleExhausted,
		ErrUnsupportedExpression,
		ErrBatchTooLarge,
		ErrMixedPartitions,
		ErrNoKeyMap,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}
