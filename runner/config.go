package runner

import (
	"time"

	"github.com/raaf-ai/raaf-go/guardrail"
	"github.com/raaf-ai/raaf-go/hook"
	"github.com/raaf-ai/raaf-go/tool"
)

// RunConfig carries per-run overrides. It is passed by value and never
// mutated by the runner; the zero value keeps every runner default.
type RunConfig struct {
	// MaxTurns caps model round-trips for this run. Takes precedence over
	// the agent override and the runner default.
	MaxTurns int

	// Timeout bounds the whole run. Cancellation takes effect at the next
	// suspension boundary (provider call or tool invocation).
	Timeout time.Duration

	// TraceID and GroupID correlate hook payloads with external tracing.
	TraceID string
	GroupID string

	// Metadata is attached to every hook payload as caller context.
	Metadata map[string]any

	// InputGuardrails and OutputGuardrails supplement the agent-declared
	// lists; agent-level guardrails run first.
	InputGuardrails  []guardrail.Guardrail
	OutputGuardrails []guardrail.Guardrail

	// Listeners are additional hook listeners for this run only.
	Listeners []hook.Listener

	// ToolConfig overrides the tool executor configuration for every
	// dispatch of this run. Nil keeps the agent / runner setting.
	ToolConfig *tool.Config
}
