package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryResource    Category = "resource"
	CategoryRender      Category = "render"
	CategoryEnvironment Category = "environment"
	CategoryState       Category = "state"
	CategoryConfig      Category = "config"
)

// PageError is a structured error carrying a registered code.
type PageError struct {
	// Code is a unique error identifier (e.g., "P001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer, call-site specific explanation.
	Detail string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PageError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a PageError with the same code.
// This lets the exported sentinels match any instance of their kind.
func (e *PageError) Is(target error) bool {
	t, ok := target.(*PageError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *PageError) WithDetail(d string) *PageError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *PageError) WithDetailf(format string, args ...any) *PageError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *PageError) Wrap(err error) *PageError {
	e.Wrapped = err
	return e
}

// New creates a PageError from a registered error code.
func New(code string) *PageError {
	template, ok := registry[code]
	if !ok {
		return &PageError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PageError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new PageError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PageError {
	return &PageError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PageError.
// Errors that already carry a code are returned unchanged.
func FromError(err error, code string) *PageError {
	if err == nil {
		return nil
	}
	var pe *PageError
	if stderrors.As(err, &pe) && pe.Code != "" {
		return pe
	}
	return New(code).Wrap(err)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// CodeOf returns the code of the first PageError in err's chain.
func CodeOf(err error) string {
	var pe *PageError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
