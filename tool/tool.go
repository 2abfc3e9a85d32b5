// Package tool implements the tool subsystem: named units of computation
// with schema validated arguments, consistent error handling and uniform
// result shapes, invoked by agents during mortgage assessment.
package tool

import (
	"fmt"

	"github.com/hupe1980/mortgagemesh/core"
)

// Tool is a single named computation with a declared parameter schema.
//
// Tools are stateless and side-effect-free from the orchestrator's
// perspective; any external call (document extraction, bureau lookup) is
// encapsulated behind this same contract. Implementations must be safe for
// concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	// The schema is validated against before invocation.
	Parameters() map[string]any

	// Call executes the tool with structured, already-decoded arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (map[string]any, error)
}

// Error codes attached to *ToolError for uniform downstream handling.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// FailureKind maps a tool error code onto the core failure taxonomy.
func (e *ToolError) FailureKind() core.FailureKind {
	if e.Code == CodeValidation {
		return core.FailureValidation
	}
	return core.FailureTool
}
