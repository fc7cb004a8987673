package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for drover
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPoolNotOpen indicates an operation that requires an open pool
	ErrPoolNotOpen = errors.New("pool is not open")

	// ErrPoolClosed indicates the pool has been closed
	ErrPoolClosed = errors.New("pool is closed")

	// ErrBundleInit indicates the capability bundle could not be materialized
	ErrBundleInit = errors.New("capability bundle initialization failed")

	// ErrInvalidOutputMode indicates an unrecognized progress output mode
	ErrInvalidOutputMode = errors.New("invalid output mode")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")
)

// SubmissionError wraps an error with the context of a failed task submission
type SubmissionError struct {
	TaskID string
	Err    error
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("submission failed: %v", e.Err)
	}
	return fmt.Sprintf("submission of task %q failed: %v", e.TaskID, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError wraps an error with submission context
func NewSubmissionError(taskID string, err error) error {
	if err == nil {
		return nil
	}
	return &SubmissionError{TaskID: taskID, Err: err}
}

// IsSubmissionError checks if an error is a submission error
func IsSubmissionError(err error) bool {
	var subErr *SubmissionError
	return errors.As(err, &subErr)
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError creates a new MultiError from a slice of errors
// It filters out nil errors
func NewMultiError(errors []error) *MultiError {
	m := &MultiError{
		Errors: make([]error, 0, len(errors)),
	}
	for _, err := range errors {
		if err != nil {
			m.Errors = append(m.Errors, err)
		}
	}
	return m
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsTimeout(err):
		return "Operation timed out. Increase the task timeout with --timeout or in the batch file."
	case IsCancelled(err):
		return "Operation was cancelled."
	case errors.Is(err, ErrPoolNotOpen):
		return "The execution pool is not open. Tasks can only be submitted to an open pool."
	case errors.Is(err, ErrInvalidOutputMode):
		return "Invalid output mode. Valid modes are: silent, summary, visual, dashboard."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	default:
		return err.Error()
	}
}
