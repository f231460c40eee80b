package guardrail

import "context"

// Pipeline combines the agent-declared guardrails with run-level overrides.
// Agent-level guardrails run first, then run-level ones, each list in
// declared order. The first tripwire wins; no further guardrails run after
// it.
type Pipeline struct {
	input  []Guardrail
	output []Guardrail
}

// NewPipeline builds a pipeline from agent-level and run-level guardrail
// lists. The slices are copied so later mutation by the caller cannot
// affect an in-flight run.
func NewPipeline(agentInput, agentOutput, runInput, runOutput []Guardrail) *Pipeline {
	return &Pipeline{
		input:  concat(agentInput, runInput),
		output: concat(agentOutput, runOutput),
	}
}

// CheckInput runs all input guardrails against the user input. A triggered
// tripwire is returned as *TripwireError with StageInput.
func (p *Pipeline) CheckInput(ctx context.Context, value string) error {
	return check(ctx, p.input, StageInput, value)
}

// CheckOutput runs all output guardrails against the final model output.
func (p *Pipeline) CheckOutput(ctx context.Context, value string) error {
	return check(ctx, p.output, StageOutput, value)
}

func check(ctx context.Context, guardrails []Guardrail, stage Stage, value string) error {
	for _, g := range guardrails {
		result, err := g.Check(ctx, value)
		if err != nil {
			return &TripwireError{Guardrail: g.Name(), Stage: stage, Reason: err.Error()}
		}
		if result.TripwireTriggered {
			return &TripwireError{Guardrail: g.Name(), Stage: stage, Reason: result.Reason}
		}
	}
	return nil
}

func concat(a, b []Guardrail) []Guardrail {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]Guardrail, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
