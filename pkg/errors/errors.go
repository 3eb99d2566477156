// Package errors provides structured error types for the flowcanvas engine.
//
// This package defines error codes and types that enable:
//   - Machine-readable rejection reasons returned to the host surface
//   - Classification into the engine's three failure classes
//   - Error wrapping with context preservation
//
// # Error Classes
//
// Every code belongs to exactly one [Class]:
//   - [ClassInvalidInput]: rejected before any mutation (missing endpoint,
//     self connection, duplicate connection)
//   - [ClassStaleState]: a state transition that does not apply right now
//     (ending a drag that never started, snapping from idle)
//   - [ClassDegenerate]: geometry with nothing to work on (empty layer)
//   - [ClassInternal]: a collaborator failed (the host surface returned an error)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSelfConnection, "node %s cannot connect to itself", id)
//	if errors.Is(err, errors.ErrCodeSelfConnection) {
//	    // Tell the user
//	}
//
//	if errors.ClassOf(err) == errors.ClassInvalidInput {
//	    // Nothing was mutated
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeMissingSource        Code = "MISSING_SOURCE"
	ErrCodeMissingTarget        Code = "MISSING_TARGET"
	ErrCodeSelfConnection       Code = "SELF_CONNECTION"
	ErrCodeDuplicateConnection  Code = "CONNECTION_EXISTS"
	ErrCodeBranchOccupied       Code = "BRANCH_OCCUPIED"
	ErrCodeUnknownBranch        Code = "UNKNOWN_BRANCH"
	ErrCodeBranchRequired       Code = "BRANCH_REQUIRED"
	ErrCodeNotConnectable       Code = "NOT_CONNECTABLE"
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"

	// Stale state transitions
	ErrCodeInvalidTransition Code = "INVALID_TRANSITION"
	ErrCodeOperationLocked   Code = "OPERATION_LOCKED"
	ErrCodeNotFound          Code = "NOT_FOUND"

	// Degenerate geometry
	ErrCodeEmptyLayer Code = "EMPTY_LAYER"

	// Internal errors
	ErrCodeSurface  Code = "SURFACE_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Class groups codes by how the caller is expected to react.
type Class int

const (
	// ClassInternal covers collaborator failures and unclassified errors.
	ClassInternal Class = iota
	// ClassInvalidInput is returned before any mutation happened.
	ClassInvalidInput
	// ClassStaleState marks a transition that is not valid in the current state.
	ClassStaleState
	// ClassDegenerate marks inputs with nothing to compute.
	ClassDegenerate
)

// String returns the lowercase class name.
func (c Class) String() string {
	switch c {
	case ClassInvalidInput:
		return "invalid_input"
	case ClassStaleState:
		return "stale_state"
	case ClassDegenerate:
		return "degenerate"
	default:
		return "internal"
	}
}

var classes = map[Code]Class{
	ErrCodeInvalidInput:         ClassInvalidInput,
	ErrCodeMissingSource:        ClassInvalidInput,
	ErrCodeMissingTarget:        ClassInvalidInput,
	ErrCodeSelfConnection:       ClassInvalidInput,
	ErrCodeDuplicateConnection:  ClassInvalidInput,
	ErrCodeBranchOccupied:       ClassInvalidInput,
	ErrCodeUnknownBranch:        ClassInvalidInput,
	ErrCodeBranchRequired:       ClassInvalidInput,
	ErrCodeNotConnectable:       ClassInvalidInput,
	ErrCodeInvalidConfiguration: ClassInvalidInput,
	ErrCodeInvalidTransition:    ClassStaleState,
	ErrCodeOperationLocked:      ClassStaleState,
	ErrCodeNotFound:             ClassStaleState,
	ErrCodeEmptyLayer:           ClassDegenerate,
	ErrCodeSurface:              ClassInternal,
	ErrCodeInternal:             ClassInternal,
}

// Class returns the class the code belongs to.
func (c Code) Class() Class {
	if cl, ok := classes[c]; ok {
		return cl
	}
	return ClassInternal
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ClassOf classifies err. Errors that carry no code are internal.
func ClassOf(err error) Class {
	return GetCode(err).Class()
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
