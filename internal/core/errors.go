// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNoData       = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrMalformedBar = &Error{Code: "MALFORMED_BAR", Message: "malformed price bar"}

	// ErrInsufficientData is informational: the pipeline answers short input with an
	// empty result and never returns it.
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Collector errors
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}

	// Strategy errors
	ErrStrategyNotFound = &Error{Code: "STRATEGY_NOT_FOUND", Message: "strategy not found"}

	// Job errors
	ErrJobNotFound = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}
	ErrJobFailed   = &Error{Code: "JOB_FAILED", Message: "job failed"}
	ErrJobsBusy    = &Error{Code: "JOBS_BUSY", Message: "job store full of unfinished jobs"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}

	// Archive errors
	ErrArchiveFailed = &Error{Code: "ARCHIVE_FAILED", Message: "archive write failed"}
)
