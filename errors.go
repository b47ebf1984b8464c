package nakarushton

import (
	"errors"
	"fmt"
)

// Sentinel reasons carried by FittingError. Match them with errors.Is.
var (
	ErrLengthMismatch  = errors.New("contrast and response lengths differ")
	ErrTooFewPoints    = errors.New("fewer data points than free parameters")
	ErrInvalidBounds   = errors.New("lower bound exceeds upper bound")
	ErrInitOutOfBounds = errors.New("initial parameters outside bounds")
	ErrNonFinite       = errors.New("non-finite value in input")
	ErrNoConvergence   = errors.New("solver did not converge")
)

// FittingError is returned by Fit for malformed input or solver failure.
// No partial result accompanies it.
type FittingError struct {
	Reason error  // One of the Err* sentinels
	Detail string // Which value or parameter triggered it
}

func (e *FittingError) Error() string {
	if e.Detail == "" {
		return "nakarushton: fit failed: " + e.Reason.Error()
	}
	return fmt.Sprintf("nakarushton: fit failed: %v: %s", e.Reason, e.Detail)
}

func (e *FittingError) Unwrap() error {
	return e.Reason
}

func fitErrorf(reason error, format string, args ...any) *FittingError {
	return &FittingError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
