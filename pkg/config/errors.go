package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField indicates a required environment variable is unset.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidValue indicates a field has a value that fails validation.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrConflictingCredentials indicates mutually exclusive credential
	// modes (access-key pair vs role ARN) were both supplied.
	ErrConflictingCredentials = errors.New("conflicting credential configuration")
)

// ValidationError wraps a field-specific configuration validation failure,
// matching the teacher's pkg/config/errors.go ValidationError shape.
type ValidationError struct {
	Section string
	Field   string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s.%s: %v", e.Section, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError constructs a section/field-scoped validation error.
func NewValidationError(section, field string, err error) *ValidationError {
	return &ValidationError{Section: section, Field: field, Err: err}
}
