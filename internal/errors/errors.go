// Package errors provides the structured error kinds surfaced by the table
// engine to its callers.
//
// Only failures that must reach the user are represented here. A field that
// is absent from a record, or a patch whose target cannot be found, is not an
// error: extraction falls back to defaults and the write becomes a no-op.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an error that did not originate in this package.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidCharacter is returned when text cannot be encoded.
	CodeInvalidCharacter Code = "INVALID_CHARACTER"
	// CodeFileNotFound is returned when a required input path is missing.
	CodeFileNotFound Code = "FILE_NOT_FOUND"
	// CodeNotAFile is returned when a required input path is a directory.
	CodeNotAFile Code = "NOT_A_FILE"
	// CodeMalformedRecord is returned when a scan cannot complete.
	CodeMalformedRecord Code = "MALFORMED_RECORD"
	// CodeValidationFailed is returned when values fail pre-save checks.
	CodeValidationFailed Code = "VALIDATION_FAILED"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Metadata map[string]string // Additional context (path, record id, rune)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return err != nil && stderrors.Is(err, &Error{Code: code})
}
