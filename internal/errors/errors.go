// Package errors provides the structured error type used across gauntlet.
// Errors carry a Code classifying the failure, the operation that produced it,
// and an optional cause, and they cooperate with errors.Is and errors.As.
package errors

import (
	"errors"
	"fmt"
)

// Code represents error categories for classifying different types of failures.
type Code int

const (
	// Unknown indicates an unclassified error.
	Unknown Code = iota
	// Configuration indicates a configuration error.
	Configuration
	// Validation indicates a validation failure.
	Validation
	// Instantiation indicates the test instance could not be provided.
	Instantiation
	// Condition indicates an execution condition failed to evaluate.
	Condition
	// ParameterResolution indicates a body parameter could not be resolved.
	ParameterResolution
	// Timeout indicates an invocation exceeded its time limit.
	Timeout
	// InvalidState indicates a lifecycle operation was called out of order.
	InvalidState
	// Registration indicates an extension could not be registered.
	Registration
	// Scenario indicates a malformed scenario file.
	Scenario
	// Cancelled indicates a run was stopped before every unit started.
	Cancelled
)

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case Unknown:
		return "Unknown"
	case Configuration:
		return "Configuration"
	case Validation:
		return "Validation"
	case Instantiation:
		return "Instantiation"
	case Condition:
		return "Condition"
	case ParameterResolution:
		return "ParameterResolution"
	case Timeout:
		return "Timeout"
	case InvalidState:
		return "InvalidState"
	case Registration:
		return "Registration"
	case Scenario:
		return "Scenario"
	case Cancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Code(%d)", c)
	}
}

// Error represents a structured application error with code, message,
// operation context, and optional cause for error chaining.
type Error struct {
	Code    Code   // Error category
	Message string // Human-readable error message
	Op      string // Operation that failed (e.g., "engine.Prepare")
	Cause   error  // Underlying error, if any
}

// New creates a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with additional context.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithOp adds operation context to the error and returns the modified error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Error implements the error interface.
// The format varies based on whether Op and Cause are set:
//   - With Op and Cause: "op: message: cause"
//   - With Op only: "op: message"
//   - With Cause only: "message: cause"
//   - Message only: "message"
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// GetCode extracts the error code from an error.
// Returns Unknown if the error chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Sentinel errors for common cases.
var (
	// ErrInvalidState is returned when a lifecycle operation is called out of order.
	ErrInvalidState = New(InvalidState, "operation not allowed in current state")
	// ErrTimeout indicates an invocation exceeded its allowed time.
	ErrTimeout = New(Timeout, "invocation timed out")
	// ErrCancelled indicates a run was cancelled before a unit started.
	ErrCancelled = New(Cancelled, "run cancelled")
)
