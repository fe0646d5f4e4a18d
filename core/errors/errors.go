// Package errors provides the error types pngme reports to users.
//
// Codec failures from core/png are wrapped here with the file path and the
// operation that was running, so the CLI can print a single line without
// losing the structured cause underneath.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a requested chunk, blob or file does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid arguments or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrCorrupt indicates a file whose bytes could not be decoded
	ErrCorrupt = errors.New("corrupt data")
)

// NotFoundError represents a missing resource with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "chunk", "blob")
	ID       string // Identifier of the resource
	Path     string // File the lookup ran against, if any
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found", e.Resource)
	if e.ID != "" {
		msg = fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	if e.Path != "" {
		msg += " in " + e.Path
	}
	return msg
}

// Is makes every NotFoundError match ErrNotFound, even when it wraps a
// more specific cause.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an argument validation error with context
type ValidationError struct {
	Field   string // Argument or flag that failed validation
	Value   string // Offending value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents a file system error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a file whose contents could not be decoded
type ParseError struct {
	Format string // Format being parsed (e.g., "PNG", "xz backup")
	Path   string // File path, if applicable
	Err    error  // Underlying codec error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrCorrupt
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id, path string, err error) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
		Path:     path,
		Err:      err,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, value string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: err.Error(),
		Err:     err,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path string, err error) *ParseError {
	return &ParseError{
		Format: format,
		Path:   path,
		Err:    err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target any) bool {
	return errors.As(err, target)
}
