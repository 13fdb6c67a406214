package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"statsmed/domain/core"
)

// AppError represents a structured analysis error. Stage names the
// computation that failed and Inputs carries the offending values so the
// caller can render a user-facing message without re-deriving context.
type AppError struct {
	Code    string
	Message string
	Stage   string
	Inputs  map[string]interface{}
	Cause   error
}

func (e *AppError) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Inputs) > 0 {
		keys := make([]string, 0, len(e.Inputs))
		for k := range e.Inputs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Inputs[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the error class sentinel belonging to the code, so
// errors.Is(err, core.ErrDomain) works regardless of the cause chain.
func (e *AppError) Is(target error) bool {
	class := classFor(e.Code)
	return class != nil && target == class
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeDomain          = "DOMAIN_ERROR"
	CodeParameter       = "PARAMETER_ERROR"
	CodeRootFinding     = "ROOT_FINDING_ERROR"
	CodeNumericOverflow = "NUMERIC_OVERFLOW"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeInternalError   = "INTERNAL_ERROR"
)

func classFor(code string) error {
	switch code {
	case CodeDomain:
		return core.ErrDomain
	case CodeParameter, CodeConfigInvalid:
		return core.ErrParameter
	case CodeRootFinding:
		return core.ErrRootFinding
	case CodeNumericOverflow:
		return core.ErrNumericOverflow
	default:
		return nil
	}
}

// Inputs is shorthand for the offending-values map.
type Inputs = map[string]interface{}

func newCoded(code, stage, message string, inputs Inputs, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stage:   stage,
		Inputs:  inputs,
		Cause:   cause,
	}
}

// Domain reports an invalid sample size or shape.
func Domain(stage, message string, inputs Inputs) *AppError {
	return newCoded(CodeDomain, stage, message, inputs, nil)
}

// DomainCause reports a domain error refined by one of the core sentinels.
func DomainCause(stage string, cause error, inputs Inputs) *AppError {
	return newCoded(CodeDomain, stage, "invalid input", inputs, cause)
}

// Parameter reports missing or contradictory configuration.
func Parameter(stage, message string, inputs Inputs) *AppError {
	return newCoded(CodeParameter, stage, message, inputs, nil)
}

// ParameterCause reports a parameter error refined by one of the core sentinels.
func ParameterCause(stage string, cause error, inputs Inputs) *AppError {
	return newCoded(CodeParameter, stage, "invalid parameter", inputs, cause)
}

// RootFinding reports a solver failure.
func RootFinding(stage string, cause error, inputs Inputs) *AppError {
	return newCoded(CodeRootFinding, stage, "root finding failed", inputs, cause)
}

// NumericOverflow reports counts or tables beyond representable range.
func NumericOverflow(stage string, cause error, inputs Inputs) *AppError {
	return newCoded(CodeNumericOverflow, stage, "numeric overflow", inputs, cause)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
