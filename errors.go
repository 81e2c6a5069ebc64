// Package membench structured error types
package membench

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Invalid run or sweep configuration
	ErrTypeConfig ErrorType = iota
	// Buffer allocation could not be satisfied
	ErrTypeResource
	// Hardware counters unavailable or unreadable
	ErrTypeCounter
	// Result emission failed
	ErrTypeOutput
)

// BenchError represents a structured error with context
type BenchError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("membench %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("membench %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *BenchError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfig:
		return "Configuration"
	case ErrTypeResource:
		return "ResourceExhaustion"
	case ErrTypeCounter:
		return "Counter"
	case ErrTypeOutput:
		return "Output"
	default:
		return "Unknown"
	}
}

// NewConfigError creates a configuration error. These are normally recovered
// by substituting a default and are only surfaced for logging.
func NewConfigError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeConfig,
		Op:      op,
		Message: message,
	}
}

// NewResourceError creates a resource exhaustion error
func NewResourceError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeResource,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewCounterError creates a hardware counter error
func NewCounterError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeCounter,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a result emission error
func NewOutputError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeOutput,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

var (
	// ErrOutOfMemory indicates the operand buffers cannot be allocated
	ErrOutOfMemory = NewResourceError("NewBuffers", "out of memory", nil)

	// ErrSizeOverflow indicates n*n elements overflow the address space
	ErrSizeOverflow = NewResourceError("NewBuffers", "matrix size overflows address space", nil)

	// ErrCountersUnsupported indicates the platform has no counter support
	ErrCountersUnsupported = NewCounterError("Start", "hardware counters not supported on this platform", nil)
)

func hasType(err error, t ErrorType) bool {
	var e *BenchError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return hasType(err, ErrTypeConfig)
}

// IsResourceError checks if an error is a resource exhaustion error
func IsResourceError(err error) bool {
	return hasType(err, ErrTypeResource)
}

// IsCounterError checks if an error is a hardware counter error
func IsCounterError(err error) bool {
	return hasType(err, ErrTypeCounter)
}

// IsOutputError checks if an error is an output error
func IsOutputError(err error) bool {
	return hasType(err, ErrTypeOutput)
}
