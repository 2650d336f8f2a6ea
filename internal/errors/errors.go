package errors

import (
	"errors"
	"fmt"
)

// PluginError is the structured error type for pluginkit.
// It provides rich context for error handling, logging, and user presentation.
type PluginError struct {
	// Code is the unique error code (e.g., "ERR_203_BUILD_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Platform, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PluginError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with PluginError.
func (e *PluginError) Is(target error) bool {
	if t, ok := target.(*PluginError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PluginError) WithDetail(key, value string) *PluginError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *PluginError) WithSuggestion(suggestion string) *PluginError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PluginError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *PluginError {
	return &PluginError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code string, format string, args ...any) *PluginError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a PluginError from an existing error.
// The error's message becomes the PluginError message.
func Wrap(code string, err error) *PluginError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *PluginError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *PluginError {
	return New(ErrCodeFileNotFound, message, cause)
}

// PlatformError creates an error for a failed platform request.
func PlatformError(message string, cause error) *PluginError {
	return New(ErrCodeRequestFailed, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *PluginError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *PluginError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first PluginError in err's chain.
func As(err error) (*PluginError, bool) {
	var pe *PluginError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if pe, ok := As(err); ok {
		return pe.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a PluginError.
// Returns empty string if not a PluginError.
func GetCode(err error) string {
	if pe, ok := As(err); ok {
		return pe.Code
	}
	return ""
}

// GetCategory extracts the category from a PluginError.
// Returns empty string if not a PluginError.
func GetCategory(err error) Category {
	if pe, ok := As(err); ok {
		return pe.Category
	}
	return ""
}
