package hook

import (
	"fmt"
	"runtime/debug"

	"github.com/raaf-ai/raaf-go/internal/util"
	"github.com/raaf-ai/raaf-go/logging"
)

// stackLimit bounds the stack trace attached to listener failure logs.
const stackLimit = 2048

// Dispatcher fans lifecycle payloads out to registered listeners.
//
// Fire never returns an error and never panics: each listener call is
// individually wrapped, a failing listener is logged with context and
// dispatch continues with the remaining listeners. Registration is expected
// to happen before the dispatcher is shared across runs; Fire itself is
// safe for concurrent use once registration is complete.
type Dispatcher struct {
	logger  logging.Logger
	entries []entry
}

type entry struct {
	event    Event // zero value matches every event
	listener Listener
}

// NewDispatcher creates an empty dispatcher logging listener failures to
// the given logger.
func NewDispatcher(logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Dispatcher{logger: logger}
}

// On registers a callback for a single event.
func (d *Dispatcher) On(event Event, fn func(p Payload) (any, error)) {
	d.entries = append(d.entries, entry{event: event, listener: ListenerFunc(fn)})
}

// Register adds a listener receiving every event. Use hook.Receiver to
// register a named-method receiver.
func (d *Dispatcher) Register(l Listener) {
	d.entries = append(d.entries, entry{listener: l})
}

// Clone returns a dispatcher with the same logger and a copied listener
// list, so per-run listeners can be appended without mutating the shared
// dispatcher.
func (d *Dispatcher) Clone() *Dispatcher {
	clone := &Dispatcher{logger: d.logger}
	clone.entries = append(clone.entries, d.entries...)
	return clone
}

// Fire delivers the payload to every matching listener in registration
// order and returns the result of the last listener that produced one.
// Listener errors and panics are logged and isolated; they never propagate
// to the runner.
func (d *Dispatcher) Fire(p Payload) any {
	var last any

	for _, e := range d.entries {
		if e.event != "" && e.event != p.Event {
			continue
		}

		result, err := d.invoke(e.listener, p)
		if err != nil {
			d.logger.Error("hook.listener.failed",
				"event", string(p.Event),
				"agent", p.Agent,
				"run_id", p.RunID,
				"tool", p.ToolName,
				"error_type", fmt.Sprintf("%T", err),
				"error", err.Error(),
			)
			continue
		}

		if result != nil {
			last = result
		}
	}

	return last
}

// invoke runs a single listener with panic containment.
func (d *Dispatcher) invoke(l Listener, p Payload) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v (stack: %s)",
				r, util.Truncate(string(debug.Stack()), stackLimit))
		}
	}()

	return l.Invoke(p)
}
