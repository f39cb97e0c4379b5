package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Schema errors
	ErrSchema   = errors.New("insufficient schema")
	ErrNoTarget = fmt.Errorf("%w: no target column", ErrSchema)
	ErrNoSpend  = fmt.Errorf("%w: no spend columns", ErrSchema)

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Parameter errors
	ErrParameterDomain = errors.New("parameter outside valid domain")
	ErrZeroEffect      = fmt.Errorf("%w: effect size is zero", ErrParameterDomain)
)

// Error constructors with context
func NewSchemaError(reason string) error {
	return fmt.Errorf("%w: %s", ErrSchema, reason)
}

func NewParameterError(name string, value float64, domain string) error {
	return fmt.Errorf("%w: %s=%g, expected %s", ErrParameterDomain, name, value, domain)
}

func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsParameterError(err error) bool {
	return errors.Is(err, ErrParameterDomain)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
