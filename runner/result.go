package runner

import (
	"fmt"

	"github.com/raaf-ai/raaf-go/agent"
	"github.com/raaf-ai/raaf-go/core"
)

// RunResult is the terminal artifact of a successful run. It is exclusively
// owned by the caller after return; the runner keeps no reference.
type RunResult struct {
	// RunID is the unique identifier assigned to this run.
	RunID string

	// Messages is the full ordered transcript including the initial user
	// input, every assistant message and every tool result.
	Messages []core.Message

	// LastAgent is the agent that produced the final output (the active
	// agent after any handoffs).
	LastAgent *agent.Agent

	// FinalOutput is the text content of the last assistant message.
	FinalOutput string

	// Usage aggregates token accounting over all model round-trips.
	Usage core.Usage

	// Turns is the number of model round-trips performed.
	Turns int

	// Succeeded is true for every returned result; runs that fail return
	// an error instead.
	Succeeded bool
}

// MaxTurnsExceededError is the deterministic safety valve against infinite
// tool loops: it is returned when a run reaches its configured turn limit
// without producing a final output.
type MaxTurnsExceededError struct {
	// Limit is the configured maximum number of turns.
	Limit int
}

// Error implements the error interface.
func (e *MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("Maximum turns (%d) exceeded", e.Limit)
}
