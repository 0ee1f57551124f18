// Package errors provides structured error types for muleflow.
//
// Error codes let the CLI tell fatal render conditions apart from the
// conditions the pipeline absorbs locally (skipped files, dangling flow
// references). Codes follow a simple naming convention:
//   - INVALID_*: input validation failures
//   - NO_FLOWS / FLOW_NOT_FOUND: nothing renderable was found
//   - RENDER_FAILED / UNSUPPORTED: backend failures
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDiagramType, "unknown diagram type: %s", t)
//	if errors.Is(err, errors.ErrCodeNoFlows) {
//	    // nothing to draw
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRenderFailed, origErr, "write %s", path)
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
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeInvalidDiagramType Code = "INVALID_DIAGRAM_TYPE"
	ErrCodeInvalidFlowName    Code = "INVALID_FLOW_NAME"

	// Model errors
	ErrCodeParseFailed       Code = "PARSE_FAILED"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"
	ErrCodeNoFlows           Code = "NO_FLOWS"
	ErrCodeFlowNotFound      Code = "FLOW_NOT_FOUND"

	// Render errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeUnsupported  Code = "UNSUPPORTED"

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
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err ends a pipeline run. Parse and reference
// conditions are absorbed by the stage that produced them; anything else,
// including uncoded errors, is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeParseFailed, ErrCodeDanglingReference, ErrCodeInvalidPath:
		return false
	}
	return true
}
