// Package handoff implements agent-to-agent transfer. A handoff is a
// synthetic tool whose name is derived from the target agent's identifier;
// the runner detects such calls before normal dispatch and swaps the active
// agent while preserving the full transcript.
package handoff

import (
	"fmt"
	"strings"

	"github.com/raaf-ai/raaf-go/agent"
	"github.com/raaf-ai/raaf-go/core"
	"github.com/raaf-ai/raaf-go/logging"
	"github.com/raaf-ai/raaf-go/provider"
)

// ToolPrefix is the naming convention marking a tool call as a handoff.
const ToolPrefix = "transfer_to_"

// ToolName derives the synthetic tool name for transferring to the named
// agent. Names are normalized to snake_case so "Billing Support" becomes
// "transfer_to_billing_support".
func ToolName(agentName string) string {
	return ToolPrefix + normalize(agentName)
}

// IsHandoffCall reports whether a tool call follows the handoff naming
// convention.
func IsHandoffCall(toolName string) bool {
	return strings.HasPrefix(toolName, ToolPrefix)
}

// Definitions builds the synthetic tool definitions advertised to the model
// for the current agent's declared handoff targets.
func Definitions(current *agent.Agent) []provider.ToolDefinition {
	targets := current.Handoffs()
	if len(targets) == 0 {
		return nil
	}

	defs := make([]provider.ToolDefinition, 0, len(targets))
	for _, target := range targets {
		desc := fmt.Sprintf("Transfer the conversation to agent %q.", target.Name())
		if target.Description() != "" {
			desc = fmt.Sprintf("Transfer the conversation to agent %q. %s", target.Name(), target.Description())
		}
		defs = append(defs, provider.ToolDefinition{
			Name:        ToolName(target.Name()),
			Description: desc,
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		})
	}

	return defs
}

// UnknownTargetError reports a handoff to an agent the current agent never
// declared. This is a configuration error and fatal for the run.
type UnknownTargetError struct {
	Tool  string // Synthetic tool name the model called
	Agent string // Agent that attempted the transfer
}

// Error implements the error interface.
func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("agent %q has no handoff target matching %q", e.Agent, e.Tool)
}

// Controller resolves handoff-shaped tool calls against the declared
// handoff edges of the active agent.
type Controller struct {
	logger logging.Logger
}

// NewController creates a controller logging transfers to the given logger.
func NewController(logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Controller{logger: logger}
}

// Resolve maps a handoff tool call to the next active agent. The target
// must be in the current agent's declared handoff list; anything else is an
// UnknownTargetError.
func (c *Controller) Resolve(call core.ToolCall, current *agent.Agent) (*agent.Agent, error) {
	target := strings.TrimPrefix(call.Name, ToolPrefix)

	for _, candidate := range current.Handoffs() {
		if normalize(candidate.Name()) == target {
			c.logger.Info("handoff.resolved",
				"from_agent", current.Name(),
				"to_agent", candidate.Name(),
				"call_id", call.ID,
			)
			return candidate, nil
		}
	}

	return nil, &UnknownTargetError{Tool: call.Name, Agent: current.Name()}
}

// AcknowledgeContent is the tool message body recorded for a completed
// transfer, keeping the transcript's call/response pairing intact.
func AcknowledgeContent(target *agent.Agent) string {
	return fmt.Sprintf(`{"transferred": true, "agent": %q}`, target.Name())
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
