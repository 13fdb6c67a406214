package core

import (
	"errors"
	"fmt"
)

// Error classes shared by every analysis stage. Concrete errors wrap one of
// these so callers can map them to their own transport representation.
var (
	// Invalid sample size or shape (n < 1 for signed-rank, n < 2 for t intervals, NaN input).
	ErrDomain = errors.New("domain error")
	// Missing or contradictory configuration (unknown mode or method key, no bound given).
	ErrParameter = errors.New("parameter error")
	// Bracket without sign change or a solver that did not converge.
	ErrRootFinding = errors.New("root finding error")
	// Combinatorial counts or tables beyond the representable range.
	ErrNumericOverflow = errors.New("numeric overflow")
)

// Specific conditions, each belonging to one class above.
var (
	ErrEmptySample      = fmt.Errorf("%w: empty sample", ErrDomain)
	ErrNonFinite        = fmt.Errorf("%w: non-finite value", ErrDomain)
	ErrSampleTooSmall   = fmt.Errorf("%w: sample too small", ErrDomain)
	ErrLengthMismatch   = fmt.Errorf("%w: paired samples differ in length", ErrDomain)
	ErrZeroVariance     = fmt.Errorf("%w: zero variance", ErrDomain)
	ErrUnknownMode      = fmt.Errorf("%w: unknown mode", ErrParameter)
	ErrUnknownMethod    = fmt.Errorf("%w: unknown method", ErrParameter)
	ErrUnknownFamily    = fmt.Errorf("%w: unknown analysis family", ErrParameter)
	ErrNoSignChange     = fmt.Errorf("%w: no sign change in bracket", ErrRootFinding)
	ErrNotConverged     = fmt.Errorf("%w: did not converge", ErrRootFinding)
	ErrTableTooLarge    = fmt.Errorf("%w: distribution table too large", ErrNumericOverflow)
	ErrCountUnderflowed = fmt.Errorf("%w: normalising constant out of range", ErrNumericOverflow)
)

func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

func IsParameterError(err error) bool {
	return errors.Is(err, ErrParameter)
}

func IsRootFindingError(err error) bool {
	return errors.Is(err, ErrRootFinding)
}

func IsNumericOverflowError(err error) bool {
	return errors.Is(err, ErrNumericOverflow)
}
