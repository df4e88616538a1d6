package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinels for the error taxonomy. Match them with errors.Is.
var (
	ErrInvalidArgument      = stderrors.New("batchstore: invalid argument")
	ErrUnknownChannel       = stderrors.New("batchstore: unknown channel")
	ErrIllegalReentrantCall = stderrors.New("batchstore: illegal reentrant call")
)

// Category represents the type of error.
type Category string

const (
	CategoryArgument   Category = "argument"
	CategoryChannel    Category = "channel"
	CategoryReentrancy Category = "reentrancy"
	CategoryProtocol   Category = "protocol"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// StoreError is a structured error with a code, a suggestion and documentation.
type StoreError struct {
	// Code is a unique error identifier (e.g., "E010").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error

	kind error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is the sentinel this error was registered under.
func (e *StoreError) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

// Kind returns the taxonomy sentinel of the error, or nil for
// configuration and CLI errors.
func (e *StoreError) Kind() error {
	return e.kind
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StoreError) WithSuggestion(s string) *StoreError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StoreError) WithDetail(d string) *StoreError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StoreError) Wrap(err error) *StoreError {
	e.Wrapped = err
	return e
}

// New creates a StoreError from a registered error code.
func New(code string) *StoreError {
	template, ok := registry[code]
	if !ok {
		return &StoreError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StoreError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
		kind:     template.Kind,
	}
}

// Newf creates a StoreError from a registered code with a formatted message.
func Newf(code, format string, args ...any) *StoreError {
	e := New(code)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// FromError wraps a standard error in a StoreError.
func FromError(err error, code string) *StoreError {
	if err == nil {
		return nil
	}
	var se *StoreError
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// As is errors.As specialised to *StoreError.
func As(err error) (*StoreError, bool) {
	var se *StoreError
	ok := stderrors.As(err, &se)
	return se, ok
}
