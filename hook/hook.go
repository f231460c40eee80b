// Package hook implements the lifecycle event dispatch used for
// observability. The runner is the sole producer of payloads; listeners are
// pure consumers (tracing sinks, metrics, debuggers). A failing listener is
// logged and skipped so observability can never break agent execution.
package hook

import "time"

// Event names a lifecycle point in the turn loop.
type Event string

const (
	// EventStart fires once before the first model call of a run.
	EventStart Event = "on_start"
	// EventToolStart fires before each tool dispatch.
	EventToolStart Event = "on_tool_start"
	// EventToolEnd fires after a tool returned successfully.
	EventToolEnd Event = "on_tool_end"
	// EventHandoff fires when the active agent is swapped.
	EventHandoff Event = "on_handoff"
	// EventError fires when the run is about to fail.
	EventError Event = "on_error"
	// EventEnd fires once after the final output passed the guardrails.
	EventEnd Event = "on_end"
)

// Payload is the per-event value synthesized by the runner and discarded
// after dispatch. Context, Agent and Timestamp are always set; the
// remaining fields depend on the event:
//
//	on_tool_start  ToolName, Tool, Arguments
//	on_tool_end    ToolName, Tool, Result
//	on_handoff     FromAgent, ToAgent
//	on_error       Err
//	on_end         Result (final output)
type Payload struct {
	Event     Event
	RunID     string
	Agent     string
	Timestamp time.Time
	Context   map[string]any // caller-supplied run metadata, may be nil

	ToolName  string
	Tool      any
	Arguments map[string]any
	Result    any
	Err       error
	FromAgent string
	ToAgent   string
}

// Listener consumes lifecycle payloads. Two shapes are supported: a plain
// callback (ListenerFunc) and a named-method receiver (see Receiver). The
// returned value is surfaced as the dispatch result of Fire; listeners that
// have nothing to report return nil.
type Listener interface {
	Invoke(p Payload) (any, error)
}

// ListenerFunc adapts a plain function into a Listener.
type ListenerFunc func(p Payload) (any, error)

// Invoke calls the wrapped function.
func (f ListenerFunc) Invoke(p Payload) (any, error) { return f(p) }

// Per-event handler interfaces for named-method receivers. A receiver
// implements only the methods it cares about.
type (
	// StartHandler handles on_start.
	StartHandler interface {
		OnStart(p Payload) (any, error)
	}
	// ToolStartHandler handles on_tool_start.
	ToolStartHandler interface {
		OnToolStart(p Payload) (any, error)
	}
	// ToolEndHandler handles on_tool_end.
	ToolEndHandler interface {
		OnToolEnd(p Payload) (any, error)
	}
	// HandoffHandler handles on_handoff.
	HandoffHandler interface {
		OnHandoff(p Payload) (any, error)
	}
	// ErrorHandler handles on_error.
	ErrorHandler interface {
		OnError(p Payload) (any, error)
	}
	// EndHandler handles on_end.
	EndHandler interface {
		OnEnd(p Payload) (any, error)
	}
)

// receiverListener routes payloads to the matching named method of recv.
// Events the receiver does not handle are ignored. Routing is by type
// assertion on the narrow handler interfaces, not reflection.
type receiverListener struct {
	recv any
}

// Receiver adapts a named-method receiver into a Listener.
func Receiver(recv any) Listener { return &receiverListener{recv: recv} }

// Invoke dispatches to the receiver method matching the payload event.
func (r *receiverListener) Invoke(p Payload) (any, error) {
	switch p.Event {
	case EventStart:
		if h, ok := r.recv.(StartHandler); ok {
			return h.OnStart(p)
		}
	case EventToolStart:
		if h, ok := r.recv.(ToolStartHandler); ok {
			return h.OnToolStart(p)
		}
	case EventToolEnd:
		if h, ok := r.recv.(ToolEndHandler); ok {
			return h.OnToolEnd(p)
		}
	case EventHandoff:
		if h, ok := r.recv.(HandoffHandler); ok {
			return h.OnHandoff(p)
		}
	case EventError:
		if h, ok := r.recv.(ErrorHandler); ok {
			return h.OnError(p)
		}
	case EventEnd:
		if h, ok := r.recv.(EndHandler); ok {
			return h.OnEnd(p)
		}
	}
	return nil, nil
}
