// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrInvalidParameter marks a period, date or enum validation failure.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptySeries is returned when a provider has no bars for the range.
	ErrEmptySeries = errors.New("no data for requested range")
	// ErrAlignmentMismatch is an invariant violation between warm-up and output length.
	ErrAlignmentMismatch = errors.New("alignment mismatch")
	// ErrProvider marks an external data source failure.
	ErrProvider        = errors.New("data provider failure")
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrUnknownProvider = errors.New("unknown data provider")
)

// ProviderError represents an error from an external market data provider.
type ProviderError struct {
	Provider string
	Symbol   string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s] %s: %s: %v", e.Provider, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s] %s: %s", e.Provider, e.Symbol, e.Message)
}

// Unwrap exposes both ErrProvider and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProvider, e.Err}
	}
	return []error{ErrProvider}
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, symbol, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// AlignmentError describes a length disagreement between dates and an indicator series.
type AlignmentError struct {
	Dates   int
	Values  int
	Warmup  int
	Context string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment mismatch [%s]: %d dates - warmup %d != %d values",
		e.Context, e.Dates, e.Warmup, e.Values)
}

func (e *AlignmentError) Unwrap() error {
	return ErrAlignmentMismatch
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
