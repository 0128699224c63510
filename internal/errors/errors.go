// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrInsufficientPricingData = errors.New("insufficient pricing data")
	ErrNumericalInstability    = errors.New("numerical instability")
	ErrUnknownTemplate         = errors.New("unknown strategy template")
	ErrConfigInvalid           = errors.New("invalid configuration")
	ErrNoConvergence           = errors.New("solver did not converge")
)

// ValidationError represents a validation error on evaluator input. It wraps
// ErrInvalidInput so callers can match on the sentinel.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// PricingError represents a failure inside the pricing model for a specific
// contract.
type PricingError struct {
	Symbol string
	Strike float64
	Reason string
	Err    error
}

func (e *PricingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pricing error [%s %.2f]: %s: %v", e.Symbol, e.Strike, e.Reason, e.Err)
	}
	return fmt.Sprintf("pricing error [%s %.2f]: %s", e.Symbol, e.Strike, e.Reason)
}

func (e *PricingError) Unwrap() error {
	return e.Err
}

// NewPricingError creates a new PricingError.
func NewPricingError(symbol string, strike float64, reason string, err error) *PricingError {
	return &PricingError{
		Symbol: symbol,
		Strike: strike,
		Reason: reason,
		Err:    err,
	}
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
