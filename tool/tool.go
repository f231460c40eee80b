// Package tool implements the function calling subsystem: the Tool
// interface agents expose to models, a generic FunctionTool adapter, and
// the Executor interception layer that wraps every dispatch with parameter
// validation, logging and execution metadata.
package tool

import (
	"fmt"

	"github.com/raaf-ai/raaf-go/internal/util"
)

// Error codes attached to *Error by the executor and tool adapters.
const (
	// CodeValidation marks a schema / argument mismatch detected before
	// the tool ran.
	CodeValidation = "VALIDATION_ERROR"
	// CodeExecution marks a failure returned by the tool itself.
	CodeExecution = "EXECUTION_ERROR"
)

// Tool is a named callable an agent can expose to the model.
//
// Implementations must be safe for concurrent use: the same Tool value is
// shared by every run of every agent that registers it. AlreadyWrapped is a
// mandatory capability flag set at construction: a tool returning true
// declares that it performs its own validation, logging and metadata
// handling, and the Executor bypasses all conveniences for it so work is
// never applied twice.
type Tool interface {
	// Name returns the unique identifier for this tool
	// (snake_case recommended).
	Name() string

	// Description is shown to the model to explain when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	// May be nil for tools that accept anything.
	Parameters() map[string]any

	// AlreadyWrapped reports whether the tool handles its own
	// validation / logging / metadata.
	AlreadyWrapped() bool

	// Call executes the tool with decoded arguments.
	Call(tc *Context, args map[string]any) (any, error)
}

// ValidationError is re-exported so callers can match argument validation
// failures without importing internal packages.
type ValidationError = util.ValidationError

// Error is the uniform failure shape for tool dispatch.
type Error struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
	Err     error  `json:"-"`       // Underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NotFoundError is returned when a requested tool is not registered on the
// active agent.
type NotFoundError struct {
	Tool  string
	Agent string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found on agent %q", e.Tool, e.Agent)
}
