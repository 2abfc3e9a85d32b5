package core

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed applications or parameters before any
// work starts. Detail optionally carries structured data (for example the set
// of valid step names) so the caller can self-correct.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError constructs a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown execution, agent or tool identifier.
type NotFoundError struct {
	Kind string // "execution", "agent", "tool", "document", "method"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NewNotFoundError constructs a NotFoundError for the given kind and id.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// OrchestrationFault is an unexpected internal error during dispatch or
// aggregation. It forces the execution to FAILED and always surfaces to the
// caller.
type OrchestrationFault struct {
	Op  string
	Err error
}

func (e *OrchestrationFault) Error() string {
	return fmt.Sprintf("orchestration fault in %s: %v", e.Op, e.Err)
}

func (e *OrchestrationFault) Unwrap() error { return e.Err }

// ErrAlreadyTerminal is returned by Cancel when the execution has already
// reached a terminal status. The record is left untouched.
var ErrAlreadyTerminal = errors.New("execution already in terminal status")
