package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrScenarioNotFound = fmt.Errorf("%w: scenario", ErrNotFound)

	// Validation errors
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidGrid      = errors.New("invalid hypothesis grid")
	ErrInvalidHistogram = errors.New("invalid histogram")
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Fit and uncertainty errors
	ErrRangeInsufficient    = errors.New("scan range insufficient to bracket the uncertainty band")
	ErrUndefinedUncertainty = errors.New("undefined uncertainty: non-positive curvature")
	ErrInvalidLikelihood    = errors.New("invalid likelihood term")
	ErrNotConverged         = errors.New("minimization did not converge")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

func NewInsufficientDataError(have, need int) error {
	return fmt.Errorf("%w: have %d points, need at least %d", ErrInsufficientData, have, need)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidGrid) ||
		errors.Is(err, ErrInvalidHistogram)
}

// IsFitError reports whether err is one of the local scan/fit/extraction failures.
func IsFitError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrRangeInsufficient) ||
		errors.Is(err, ErrUndefinedUncertainty) ||
		errors.Is(err, ErrInvalidLikelihood) ||
		errors.Is(err, ErrNotConverged)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrSeedMismatch)
}
