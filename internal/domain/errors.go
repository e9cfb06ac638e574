// Package domain defines the booking core's entities and its error taxonomy.
// The error types let handlers map failures to stable HTTP statuses with
// errors.As, while services keep returning plain error values. Reason strings
// are short and machine-checkable; internal detail is never put in them.
package domain

import "fmt"

// ValidationError marks malformed or out-of-range input, detected before any
// write is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Reason }

// AuthError marks a request made by the wrong actor.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "not authorized: " + e.Reason }

// NotFoundError marks a missing entity.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Reason }

// ConflictError marks a failed precondition of an atomic conditional write,
// or a duplicate unique key. The write itself already decided the outcome;
// the reason only describes it.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

// ProcessorError wraps an external payment processor failure. Err is kept for
// logs; only Reason is ever shown to clients.
type ProcessorError struct {
	Reason string
	Err    error
}

func (e *ProcessorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment processor: %s: %v", e.Reason, e.Err)
	}
	return "payment processor: " + e.Reason
}

func (e *ProcessorError) Unwrap() error { return e.Err }
