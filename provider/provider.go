// Package provider defines the vendor-neutral model interface the runner
// drives, together with the typed error taxonomy the runner relies on to
// decide fatal-vs-surfaceable. Concrete adapters live in subpackages; retry
// and backoff are their responsibility, the runner treats each Complete
// call as atomic.
package provider

import (
	"context"

	"github.com/raaf-ai/raaf-go/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the runner for
// one turn.
type Request struct {
	Model        string           `json:"model,omitempty"` // Provider default when empty
	Instructions string           `json:"instructions"`    // Active agent instructions
	Messages     []core.Message   `json:"messages"`        // Full transcript so far
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Response is the completed output of one model round-trip.
type Response struct {
	ID           string          `json:"id"`
	Content      string          `json:"content"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"` // Emission order preserved
	FinishReason string          `json:"finish_reason"`        // "stop", "length", "tool_calls", ...
	Usage        core.Usage      `json:"usage"`
}

// Provider is the minimal capability the runner needs from a model vendor.
//
// Implementations must return the typed errors of this package
// (AuthenticationError, RateLimitError, ServerError, NetworkError,
// BadRequestError) so callers can distinguish failure classes with
// errors.As.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Chunk is one streamed fragment of a response.
type Chunk struct {
	Delta    string    // Text delta, possibly empty
	Done     bool      // Last chunk; Response carries the assembled result
	Response *Response // Set when Done
}

// StreamingProvider is optionally implemented by providers that support
// incremental delivery.
type StreamingProvider interface {
	Provider

	Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error)
}
