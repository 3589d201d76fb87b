// Package errs provides the typed error kinds and sentinel errors shared
// across every component boundary in this repository. It generalizes the
// teacher's services.ValidationError/sentinel pattern and its MCP recovery
// classifier into a single taxonomy usable by pipeline activities, the
// reconciler, the broadcaster, and the LLM coordinator alike.
package errs

import (
	"errors"
	"fmt"
)

// Kind enumerates the error classes every component boundary classifies
// an error into. A Kind determines whether the caller retries, how it
// retries, and whether it surfaces the failure to the workflow DAG as
// fatal or transient.
type Kind int

const (
	// Unknown is the zero value; treated as Logical (non-retryable) by
	// every caller of Classify.
	Unknown Kind = iota
	// Transient covers I/O failures expected to clear on their own:
	// connection resets, timeouts, 5xx responses, context deadlines hit
	// while talking to a remote peer.
	Transient
	// Permission covers authn/authz failures against an external system
	// (object storage, inference API, LLM backend).
	Permission
	// NotFound covers missing remote resources (object keys, recording
	// ids, workflow runs).
	NotFound
	// Validation covers caller-supplied input that is structurally or
	// semantically invalid.
	Validation
	// Protocol covers malformed responses from an external collaborator:
	// schema mismatches, wire-format violations, unexpected status codes
	// that aren't retryable.
	Protocol
	// Logical covers invariant violations in this program's own state
	// machine (e.g. a status transition that isn't legal). Never
	// retryable.
	Logical
)

func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permission:
		return "permission"
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Protocol:
		return "protocol"
	case Logical:
		return "logical"
	default:
		return "unknown"
	}
}

// Retryable reports whether an error of this Kind is safe to retry without
// additional caller-side correction.
func (k Kind) Retryable() bool {
	return k == Transient
}

// Sentinel errors. Wrap these with fmt.Errorf("...: %w", errs.ErrNotFound)
// at the point of failure; Classify and errors.Is both see through wraps.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrProtocolViolation  = errors.New("protocol violation")
	ErrIllegalTransition  = errors.New("illegal state transition")
	ErrConcurrentModified = errors.New("concurrent modification detected")
)

// Error is a Kind-tagged error carrying the component that observed it and
// the wrapped cause. Components at a boundary (pkg/objectstore,
// pkg/inference, pkg/llmcoord, pkg/workflow) construct these directly
// rather than relying solely on Classify's heuristics, since they know
// their own failure shapes precisely.
type Error struct {
	Kind      Kind
	Component string
	Op        string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a Kind-tagged Error.
func New(kind Kind, component, op string, err error) *Error {
	return &Error{Kind: kind, Component: component, Op: op, Err: err}
}

// ValidationError wraps a field-specific validation failure, matching the
// teacher's services.ValidationError shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// NewValidationError constructs a field-scoped validation error.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Classify extracts the Kind of err, preferring an explicit *Error tag,
// falling back to sentinel matching, and finally to the generic network/
// context heuristics the teacher's pkg/mcp/recovery.go used for MCP
// transport errors.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return Validation
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound
	case errors.Is(err, ErrPermissionDenied):
		return Permission
	case errors.Is(err, ErrInvalidInput):
		return Validation
	case errors.Is(err, ErrProtocolViolation):
		return Protocol
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrConcurrentModified):
		return Logical
	}

	return classifyTransport(err)
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
