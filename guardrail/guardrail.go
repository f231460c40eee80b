// Package guardrail implements the safety checks applied around a run:
// input guardrails validate the user input before the first model call,
// output guardrails validate the final response before it is returned. A
// triggered tripwire aborts the run unconditionally.
package guardrail

import (
	"context"
	"fmt"
)

// Result is the outcome of a single guardrail check.
type Result struct {
	// TripwireTriggered aborts the run when true.
	TripwireTriggered bool
	// Reason explains why the tripwire fired. Surfaced in the error.
	Reason string
}

// Guardrail checks a piece of text and reports whether the run may proceed.
//
// Implementations must be safe for concurrent use: the same guardrail value
// is shared by every run of the agent that declares it. Returning an error
// (as opposed to a triggered Result) signals that the check itself failed
// and is treated the same as a tripwire.
type Guardrail interface {
	// Name identifies the guardrail in errors and logs.
	Name() string

	// Check inspects the value. Blocking work should honor ctx.
	Check(ctx context.Context, value string) (Result, error)
}

// Func adapts a plain function into a named Guardrail.
type Func struct {
	name string
	fn   func(ctx context.Context, value string) (Result, error)
}

// NewFunc wraps fn as a Guardrail with the given name.
func NewFunc(name string, fn func(ctx context.Context, value string) (Result, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the guardrail name.
func (g *Func) Name() string { return g.name }

// Check invokes the wrapped function.
func (g *Func) Check(ctx context.Context, value string) (Result, error) {
	return g.fn(ctx, value)
}

// Stage distinguishes which side of the run a tripwire fired on.
type Stage string

const (
	// StageInput marks a tripwire on the user input.
	StageInput Stage = "input"
	// StageOutput marks a tripwire on the final model output.
	StageOutput Stage = "output"
)

// TripwireError is returned when a guardrail aborts the run. It is always
// fatal; the runner never retries past it and no partial result is
// returned.
type TripwireError struct {
	Guardrail string // Name of the guardrail that fired
	Stage     Stage
	Reason    string
}

// Error implements the error interface.
func (e *TripwireError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s guardrail %q tripwire triggered: %s", e.Stage, e.Guardrail, e.Reason)
	}
	return fmt.Sprintf("%s guardrail %q tripwire triggered", e.Stage, e.Guardrail)
}
