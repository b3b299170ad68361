// Package errors provides a lightweight structured error type (BotError)
// for category-based classification across the orchestration engine, the
// control API, and the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a bot error for classification
type ErrorCategory string

const (
	// Control-flow rejections returned synchronously from public operations.
	CategoryControl ErrorCategory = "control"

	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryPlatform  ErrorCategory = "platform"
	CategoryDiscovery ErrorCategory = "discovery"
	CategoryStore     ErrorCategory = "store"

	// Runtime and infrastructure errors
	CategoryScheduler ErrorCategory = "scheduler"
	CategoryRuntime   ErrorCategory = "runtime"
	CategoryInternal  ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the current run
	SeverityError   ErrorSeverity = "error"   // Error, but the run continues
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// BotError is a structured error with category, severity, and context
type BotError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Code     Code          `json:"code,omitempty"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BotError
type ContextFields map[string]any

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BotError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BotError) WithContext(key string, value any) *BotError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BotError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BotError {
	return &BotError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BotError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BotError {
	return &BotError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := err.(*BotError); ok {
		return be.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal
// if it is not a BotError
func GetCategory(err error) ErrorCategory {
	if be, ok := err.(*BotError); ok {
		return be.Category
	}
	return CategoryInternal
}
