// Package errors provides standardized error handling for termgraph components.
// It defines the error taxonomy used across the engine (configuration, format,
// decode, integrity, query, resource) plus helper functions for consistent
// error wrapping and classification.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors by how callers must react to them.
type ErrorKind int

const (
	// KindConfiguration marks errors in the input setup: missing required
	// files, unreadable release directories. Aborts loading.
	KindConfiguration ErrorKind = iota
	// KindFormat marks structural errors in an RF2 file: header mismatch,
	// wrong column count, unexpected column name. Aborts loading.
	KindFormat
	// KindDecode marks per-row field decoding errors. Recoverable: the row
	// is dropped and counted.
	KindDecode
	// KindIntegrity marks graph-level anomalies: IS_A cycles, dangling
	// references. Logged and mitigated, never fatal.
	KindIntegrity
	// KindQuery marks caller errors on the query surface: unknown concept,
	// unloaded refset. Returned as structured values.
	KindQuery
	// KindResource marks cancellation, timeouts, and cap overruns. Returned
	// with no partial data.
	KindResource
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindFormat:
		return "format"
	case KindDecode:
		return "decode"
	case KindIntegrity:
		return "integrity"
	case KindQuery:
		return "query"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Configuration errors
	ErrDirectoryNotFound   = errors.New("release directory not found")
	ErrRequiredFileMissing = errors.New("required RF2 file missing")
	ErrInvalidConfig       = errors.New("invalid configuration")

	// Format errors
	ErrInvalidHeader    = errors.New("invalid header")
	ErrUnexpectedColumn = errors.New("unexpected column")
	ErrColumnCount      = errors.New("column count mismatch")

	// Decode errors
	ErrInvalidSctID   = errors.New("invalid SCTID")
	ErrInvalidBoolean = errors.New("invalid boolean value")
	ErrInvalidDate    = errors.New("invalid date value")
	ErrInvalidInteger = errors.New("invalid integer value")

	// Integrity errors
	ErrCycleDetected     = errors.New("cycle detected in IS_A hierarchy")
	ErrDanglingReference = errors.New("dangling concept reference")

	// Query errors
	ErrUnknownConcept  = errors.New("unknown concept id")
	ErrRefsetNotLoaded = errors.New("refset not loaded")
	ErrStoreNotServing = errors.New("store is not serving")

	// Resource errors
	ErrCancelled         = errors.New("query cancelled")
	ErrDepthExceeded     = errors.New("traversal depth cap exceeded")
	ErrIterationExceeded = errors.New("iteration cap exceeded")
)

// ClassifiedError wraps an error with its taxonomy kind and origin.
type ClassifiedError struct {
	Kind      ErrorKind
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// KindOf returns the taxonomy kind for an error. The second return value is
// false when the error carries no classification and matches no sentinel.
func KindOf(err error) (ErrorKind, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	switch {
	case errors.Is(err, ErrDirectoryNotFound),
		errors.Is(err, ErrRequiredFileMissing),
		errors.Is(err, ErrInvalidConfig):
		return KindConfiguration, true
	case errors.Is(err, ErrInvalidHeader),
		errors.Is(err, ErrUnexpectedColumn),
		errors.Is(err, ErrColumnCount):
		return KindFormat, true
	case errors.Is(err, ErrInvalidSctID),
		errors.Is(err, ErrInvalidBoolean),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidInteger):
		return KindDecode, true
	case errors.Is(err, ErrCycleDetected),
		errors.Is(err, ErrDanglingReference):
		return KindIntegrity, true
	case errors.Is(err, ErrUnknownConcept),
		errors.Is(err, ErrRefsetNotLoaded),
		errors.Is(err, ErrStoreNotServing):
		return KindQuery, true
	case errors.Is(err, ErrCancelled),
		errors.Is(err, ErrDepthExceeded),
		errors.Is(err, ErrIterationExceeded):
		return KindResource, true
	}
	return 0, false
}

// IsRecoverable reports whether loading may continue after this error.
// Decode and integrity errors are recoverable; everything else aborts.
func IsRecoverable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindDecode || kind == KindIntegrity
}

// newClassified creates a new classified error.
// Internal helper - use the Wrap* functions instead.
func newClassified(kind ErrorKind, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Kind:      kind,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapKind wraps an error with the given taxonomy kind and context.
func WrapKind(kind ErrorKind, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(kind, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConfiguration wraps an error as a configuration error with context.
func WrapConfiguration(err error, component, method, action string) error {
	return WrapKind(KindConfiguration, err, component, method, action)
}

// WrapFormat wraps an error as a format error with context.
func WrapFormat(err error, component, method, action string) error {
	return WrapKind(KindFormat, err, component, method, action)
}

// WrapDecode wraps an error as a decode error with context.
func WrapDecode(err error, component, method, action string) error {
	return WrapKind(KindDecode, err, component, method, action)
}

// WrapQuery wraps an error as a query error with context.
func WrapQuery(err error, component, method, action string) error {
	return WrapKind(KindQuery, err, component, method, action)
}

// WrapResource wraps an error as a resource error with context.
func WrapResource(err error, component, method, action string) error {
	return WrapKind(KindResource, err, component, method, action)
}
