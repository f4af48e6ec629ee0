// Package tool implements host supplied function calling: tools with
// schema-validated arguments, consistent error codes and a Registry that
// turns model function calls into function responses for the session.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/tripsession/internal/util"
)

// Error codes carried by ToolError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeExecution    = "EXECUTION_ERROR"
	CodeUnknownTool  = "UNKNOWN_TOOL"
	CodeInvalidInput = "INVALID_ARGUMENTS"
)

// Tool is a capability the model can request through a function call.
//
// Tool implementations should:
//   - Provide a snake_case name matching the status label table where possible
//   - Describe when the model should use the tool
//   - Return JSON-serializable results
//   - Be safe for concurrent use; the registry may run calls in parallel
type Tool interface {
	// Name returns the unique identifier used in function calls.
	Name() string

	// Description is shown to the model to decide when to call the tool.
	Description() string

	// Parameters returns the JSON schema of the accepted arguments.
	Parameters() map[string]any

	// Call executes the tool with decoded arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
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
