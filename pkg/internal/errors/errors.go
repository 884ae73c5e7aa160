// Package errors provides the coded error type used across the generator.
// Codes are stable so callers and tests can match on the kind of failure
// without parsing messages.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode identifies the kind of failure.
type ErrorCode string

const (
	ErrUnknown ErrorCode = "UNKNOWN"

	// Template definition errors
	ErrConfigMalformed ErrorCode = "CONFIG_MALFORMED"
	ErrUnexpectedValue ErrorCode = "UNEXPECTED_VALUE"
	ErrInvalidPattern  ErrorCode = "INVALID_PATTERN"

	// Generation errors
	ErrNoRuleMatched         ErrorCode = "NO_RULE_MATCHED"
	ErrDestinationExists     ErrorCode = "DESTINATION_EXISTS"
	ErrDestinationFileExists ErrorCode = "DESTINATION_FILE_EXISTS"
	ErrInvalidUtf8           ErrorCode = "INVALID_UTF8"
	ErrRender                ErrorCode = "RENDER_ERROR"
	ErrUnsafePath            ErrorCode = "UNSAFE_PATH"
	ErrFileAccess            ErrorCode = "FILE_ACCESS"

	// Variable errors
	ErrPrompt ErrorCode = "PROMPT"

	// Source errors
	ErrCloneFailed ErrorCode = "CLONE_FAILED"
	ErrOpenFailed  ErrorCode = "OPEN_FAILED"
	ErrPullFailed  ErrorCode = "PULL_FAILED"
)

// Error is a structured error with a code, a message and optional details.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface. Details are rendered in key order
// so messages are stable.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}
	return b.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// refines lists codes that are specialisations of a broader code.
var refines = map[ErrorCode]ErrorCode{
	ErrUnexpectedValue: ErrConfigMalformed,
	ErrInvalidPattern:  ErrConfigMalformed,
}

// Is reports whether target is an *Error with the same code, or with a code
// that e's code refines.
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code || refines[e.Code] == targetErr.Code
	}
	return false
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetCode returns the code of the outermost *Error in err's chain, or
// ErrUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}
