// Package errors provides a lightweight structured error type (Error)
// for category-based classification of post-processing failures.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an error for reporting and exit-code decisions.
type Category string

const (
	// Input the lenient parser could not recover a tree from.
	CategoryParse Category = "parse"
	// A fixer's rewrite logic failed on a specific document or section.
	CategoryFixer Category = "fixer"
	// Invalid pipeline configuration, surfaced before any document is touched.
	CategoryConfig Category = "config"
	// File read/write failure.
	CategoryIO Category = "io"
	// Anything else.
	CategoryInternal Category = "internal"
)

// Severity indicates how an error affects the rest of the run.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // aborts the whole run
	SeverityError   Severity = "error"   // fails the current document only
	SeverityWarning Severity = "warning" // reported, promoted to error under --werror
)

// Error is a structured error with category, severity, and context fields.
type Error struct {
	Category Category      `json:"category"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for an Error.
type ContextFields map[string]any

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds a context field to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the error's severity.
func (e *Error) WithSeverity(severity Severity) *Error {
	e.Severity = severity
	return e
}

// New creates a new Error.
func New(category Category, severity Severity, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(err error, category Category, severity Severity, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// ParseError creates a document-level parse error.
func ParseError(err error, message string) *Error {
	return Wrap(err, CategoryParse, SeverityError, message)
}

// FixerError creates a non-fatal fixer error.
func FixerError(err error, fixer string) *Error {
	return Wrap(err, CategoryFixer, SeverityError, "fixer failed").WithContext("fixer", fixer)
}

// FatalFixerError creates a fixer error that aborts the whole run.
func FatalFixerError(err error, fixer string) *Error {
	return Wrap(err, CategoryFixer, SeverityFatal, "fatal fixer failed").WithContext("fixer", fixer)
}

// ConfigError creates a configuration validation error.
func ConfigError(message string) *Error {
	return New(CategoryConfig, SeverityFatal, message)
}

// IOError wraps a file read/write failure.
func IOError(err error, message string) *Error {
	return Wrap(err, CategoryIO, SeverityError, message)
}

// AsStructured returns the *Error in err's chain, or nil.
func AsStructured(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsCategory checks whether an error belongs to a specific category.
func IsCategory(err error, category Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == category
	}
	return false
}

// IsFatal reports whether an error should abort the whole run.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCategory extracts the category from an error, defaulting to CategoryInternal.
func GetCategory(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}
