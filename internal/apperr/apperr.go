// Package apperr provides the typed errors returned across the chunking boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	// Caller errors.
	CodeInvalidRange                = "INVALID_RANGE"
	CodeInvalidConfiguration        = "INVALID_CONFIGURATION"
	CodeUnsupportedLanguage         = "UNSUPPORTED_LANGUAGE"
	CodeUnsupportedMetadataTemplate = "UNSUPPORTED_METADATA_TEMPLATE"
	CodeUnsupportedConstruct        = "UNSUPPORTED_CONSTRUCT"

	// Internal errors. These indicate a bug, not bad input.
	CodeEmptyWindow = "EMPTY_WINDOW"
	CodeParseFailed = "PARSE_FAILED"
)

// Error is an error with a stable code and optional details.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Internal reports whether the error signals a broken invariant rather than bad input.
func (e *Error) Internal() bool {
	return e.Code == CodeEmptyWindow || e.Code == CodeParseFailed
}

// New creates a new Error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message.
func Wrap(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// IsUnsupportedLanguage checks if err is an unsupported language error.
func IsUnsupportedLanguage(err error) bool {
	return Is(err, CodeUnsupportedLanguage)
}

// IsUnsupportedConstruct checks if err is an unsupported construct error.
func IsUnsupportedConstruct(err error) bool {
	return Is(err, CodeUnsupportedConstruct)
}

// IsInvalidConfiguration checks if err is an invalid configuration error.
func IsInvalidConfiguration(err error) bool {
	return Is(err, CodeInvalidConfiguration)
}
