// Package apperr defines the coded errors sgtm reports to the user.
//
// Every failure the tool can explain carries a Code (e.g. "design.no-target").
// Where a failure is raised decides whether it aborts a command or is recorded
// against a single template; the code itself only identifies what went wrong.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure.
type Code string

const (
	CodeDesignNotFound      Code = "design.not-found"
	CodeDesignNoContent     Code = "design.no-content"
	CodeDesignNoTarget      Code = "design.no-target"
	CodeContentParseFailed  Code = "content.parse-failed"
	CodeTemplateNotFound    Code = "template.not-found"
	CodeTemplateNoContent   Code = "template.no-content-version"
	CodeTemplateNoPreheader Code = "template.no-preheader"
	CodeNoTemplates         Code = "no-templates"
	CodeConfigInvalid       Code = "config.invalid"
	CodeCSVInvalid          Code = "csv.invalid"
	CodeRequestFailed       Code = "api.request-failed"
	CodeUnknown             Code = "unknown"
)

// Error is a coded failure with an optional underlying cause.
type Error struct {
	Code     Code
	Message  string
	ExitCode int
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), ExitCode: 1}
}

// Wrap creates a coded error around cause.
func Wrap(cause error, code Code, format string, args ...interface{}) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// WithExitCode overrides the process exit code used when e aborts a command.
func (e *Error) WithExitCode(code int) *Error {
	e.ExitCode = code
	return e
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost *Error in err's chain, or
// CodeUnknown for uncoded errors. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// ExitCodeOf returns the exit code for err; uncoded errors exit with 1.
func ExitCodeOf(err error) int {
	if appErr, ok := As(err); ok && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return 1
}
