// Package errors provides structured error types for the pageforge application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, pipeline, and dev server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - VALIDATION_*: Manifest shape violations (block conversion)
//   - TEMPLATE_*: Inheritance and slot resolution failures
//   - CONVERSION_*: Format converter failures
//   - NETWORK_*: Remote manifest/page fetch failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "metadata must include a title")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTemplateNotFound, origErr, "failed to load %q", ref)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Manifest validation errors
	ErrCodeValidation Code = "VALIDATION_FAILED"
	ErrCodeSchema     Code = "INVALID_SCHEMA"

	// Template inheritance errors
	ErrCodeTemplate         Code = "TEMPLATE_FAILED"
	ErrCodeTemplateNotFound Code = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateCycle    Code = "TEMPLATE_CYCLE"
	ErrCodeSubstitution     Code = "SUBSTITUTION_FAILED"

	// Conversion errors
	ErrCodeConversion    Code = "CONVERSION_FAILED"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// I/O boundary errors
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

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

// ConversionError carries the context a converter failure needs to be
// actionable: the source and target format names plus the structure path of
// the offending node. Every converter-level failure collapses into this type;
// converters never let raw type errors propagate unwrapped.
type ConversionError struct {
	SourceFormat string // always "manifest" for manifest-driven conversions
	TargetFormat string // e.g. "html", "react", "vue", "php"
	Path         string // structure path, e.g. "structure.div.children[2]"
	Message      string
	Cause        error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s: %s -> %s conversion failed", ErrCodeConversion, e.SourceFormat, e.TargetFormat)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *ConversionError) Unwrap() error { return e.Cause }

// NewConversionError builds a ConversionError for the given target format.
func NewConversionError(target, path, format string, args ...any) *ConversionError {
	return &ConversionError{
		SourceFormat: "manifest",
		TargetFormat: target,
		Path:         path,
		Message:      fmt.Sprintf(format, args...),
	}
}

// AsConversion coerces an arbitrary error into a ConversionError for the
// given target format. Existing ConversionErrors pass through unchanged.
func AsConversion(err error, target string) *ConversionError {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConversionError{
		SourceFormat: "manifest",
		TargetFormat: target,
		Cause:        err,
	}
}
