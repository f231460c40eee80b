// Package agent defines the immutable agent descriptor: identity,
// instructions, model id, the ordered tool list, handoff targets and
// guardrails. Agents form a directed graph via their handoff edges; cycles
// are legal. A constructed Agent is read-only and safe to share across any
// number of concurrent runs.
package agent

import (
	"github.com/raaf-ai/raaf-go/guardrail"
	"github.com/raaf-ai/raaf-go/tool"
)

// Options collect the configurable parts of an Agent. Use the With*
// functional options with New.
type Options struct {
	Description      string
	Instructions     string
	Model            string
	Tools            []tool.Tool
	Handoffs         []*Agent
	InputGuardrails  []guardrail.Guardrail
	OutputGuardrails []guardrail.Guardrail
	// MaxTurns overrides the runner default for runs starting at this
	// agent. 0 keeps the runner default.
	MaxTurns int
	// ToolConfig overrides the runner's tool executor configuration for
	// this agent's dispatches. Nil keeps the runner default.
	ToolConfig *tool.Config
}

// Agent is an immutable descriptor. All slices are copied at construction;
// accessors return defensive copies so no caller can mutate a shared agent
// mid-run.
type Agent struct {
	name             string
	description      string
	instructions     string
	model            string
	tools            []tool.Tool
	handoffs         []*Agent
	inputGuardrails  []guardrail.Guardrail
	outputGuardrails []guardrail.Guardrail
	maxTurns         int
	toolConfig       *tool.Config
}

// New constructs an Agent. Name must be unique within a run's agent graph.
func New(name string, optFns ...func(o *Options)) *Agent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Agent{
		name:         name,
		description:  opts.Description,
		instructions: opts.Instructions,
		model:        opts.Model,
		maxTurns:     opts.MaxTurns,
	}

	a.tools = append(a.tools, opts.Tools...)
	a.handoffs = append(a.handoffs, opts.Handoffs...)
	a.inputGuardrails = append(a.inputGuardrails, opts.InputGuardrails...)
	a.outputGuardrails = append(a.outputGuardrails, opts.OutputGuardrails...)

	if opts.ToolConfig != nil {
		cfg := *opts.ToolConfig
		a.toolConfig = &cfg
	}

	return a
}

// WithDescription sets a human-readable description.
func WithDescription(desc string) func(o *Options) {
	return func(o *Options) { o.Description = desc }
}

// WithInstructions sets the system instructions sent on every model call
// while this agent is active.
func WithInstructions(instructions string) func(o *Options) {
	return func(o *Options) { o.Instructions = instructions }
}

// WithModel sets the model id requested from the provider.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = model }
}

// WithTools appends tools in declaration order.
func WithTools(tools ...tool.Tool) func(o *Options) {
	return func(o *Options) { o.Tools = append(o.Tools, tools...) }
}

// WithHandoffs appends handoff targets this agent may transfer to.
func WithHandoffs(targets ...*Agent) func(o *Options) {
	return func(o *Options) { o.Handoffs = append(o.Handoffs, targets...) }
}

// WithInputGuardrails appends input guardrails in declaration order.
func WithInputGuardrails(guardrails ...guardrail.Guardrail) func(o *Options) {
	return func(o *Options) { o.InputGuardrails = append(o.InputGuardrails, guardrails...) }
}

// WithOutputGuardrails appends output guardrails in declaration order.
func WithOutputGuardrails(guardrails ...guardrail.Guardrail) func(o *Options) {
	return func(o *Options) { o.OutputGuardrails = append(o.OutputGuardrails, guardrails...) }
}

// WithMaxTurns overrides the runner's default turn limit.
func WithMaxTurns(maxTurns int) func(o *Options) {
	return func(o *Options) { o.MaxTurns = maxTurns }
}

// WithToolConfig overrides the tool executor configuration. The value is
// cloned so later changes by the caller have no effect.
func WithToolConfig(cfg tool.Config) func(o *Options) {
	return func(o *Options) { o.ToolConfig = &cfg }
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Description returns the human-readable description.
func (a *Agent) Description() string { return a.description }

// Instructions returns the system instructions.
func (a *Agent) Instructions() string { return a.instructions }

// Model returns the requested model id, empty for the provider default.
func (a *Agent) Model() string { return a.model }

// MaxTurns returns the per-agent turn limit override, 0 for none.
func (a *Agent) MaxTurns() int { return a.maxTurns }

// Tools returns a copy of the ordered tool list.
func (a *Agent) Tools() []tool.Tool {
	tools := make([]tool.Tool, len(a.tools))
	copy(tools, a.tools)
	return tools
}

// Handoffs returns a copy of the declared handoff targets.
func (a *Agent) Handoffs() []*Agent {
	targets := make([]*Agent, len(a.handoffs))
	copy(targets, a.handoffs)
	return targets
}

// InputGuardrails returns a copy of the input guardrail list.
func (a *Agent) InputGuardrails() []guardrail.Guardrail {
	guardrails := make([]guardrail.Guardrail, len(a.inputGuardrails))
	copy(guardrails, a.inputGuardrails)
	return guardrails
}

// OutputGuardrails returns a copy of the output guardrail list.
func (a *Agent) OutputGuardrails() []guardrail.Guardrail {
	guardrails := make([]guardrail.Guardrail, len(a.outputGuardrails))
	copy(guardrails, a.outputGuardrails)
	return guardrails
}

// ToolConfig returns a copy of the tool executor override and whether one
// was set.
func (a *Agent) ToolConfig() (tool.Config, bool) {
	if a.toolConfig == nil {
		return tool.Config{}, false
	}
	return *a.toolConfig, true
}

// FindTool scans the tool list for an exact name match.
func (a *Agent) FindTool(name string) (tool.Tool, bool) {
	for _, t := range a.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
