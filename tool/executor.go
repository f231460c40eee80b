package tool

import (
	"encoding/json"
	"time"

	"github.com/raaf-ai/raaf-go/internal/util"
)

// Metadata keys merged into mapping-typed tool results.
const (
	MetadataDuration  = "duration_ms"
	MetadataToolName  = "tool_name"
	MetadataAgentName = "agent_name"
	MetadataTimestamp = "executed_at"
)

// Config toggles the executor's convenience features. Each feature defaults
// to enabled; pass a modified copy to disable one. Config is a plain value:
// share it by copying, never by pointer, so a run can never observe a
// mutation.
type Config struct {
	// Validation checks arguments against the tool's schema before any
	// side effect.
	Validation bool
	// Logging emits start / end / error events for every dispatch.
	Logging bool
	// Metadata merges execution metadata into mapping-typed results.
	Metadata bool
	// LogArguments includes the (possibly truncated) arguments in the
	// start event.
	LogArguments bool
	// TruncateArgsTo caps logged argument length in runes. <= 0 disables
	// truncation.
	TruncateArgsTo int
}

// DefaultConfig returns the baseline configuration with every feature
// enabled.
func DefaultConfig() Config {
	return Config{
		Validation:     true,
		Logging:        true,
		Metadata:       true,
		LogArguments:   true,
		TruncateArgsTo: 256,
	}
}

// Executor resolves and invokes tools on behalf of the runner, applying the
// configured conveniences around each call.
//
// Thread safety comes from function-local state only: start time and
// duration live on the stack of Execute, so a single Executor serves any
// number of concurrent runs without locks.
type Executor struct {
	cfg Config
}

// NewExecutor creates an executor with the given configuration.
func NewExecutor(cfg Config) *Executor {
	return &Executor{cfg: cfg}
}

// Config returns the executor configuration.
func (e *Executor) Config() Config { return e.cfg }

// Execute resolves name against the active agent's tool list and invokes
// it.
//
// A tool whose AlreadyWrapped flag is set bypasses every convenience and is
// called directly, so repeated dispatch is idempotent and nothing is
// processed twice. Otherwise, per configuration: arguments are validated
// before any side effect, start and end events are logged, the elapsed
// duration is recorded, and mapping-typed results are merged with execution
// metadata without overwriting keys the tool set itself. Tool errors are
// logged and re-raised, never swallowed.
func (e *Executor) Execute(tc *Context, tools []Tool, name string, args map[string]any) (any, error) {
	var impl Tool
	for _, t := range tools { // active-agent lists are small, linear scan
		if t.Name() == name {
			impl = t
			break
		}
	}
	if impl == nil {
		return nil, &NotFoundError{Tool: name, Agent: tc.AgentName()}
	}

	if impl.AlreadyWrapped() {
		return impl.Call(tc, args)
	}

	if e.cfg.Validation {
		if err := util.ValidateParameters(args, impl.Parameters()); err != nil {
			if e.cfg.Logging {
				tc.Logger().Warn("tool.call.validation_failed",
					"tool", name, "agent", tc.AgentName(), "error", err.Error())
			}
			return nil, &Error{Tool: name, Message: err.Error(), Code: CodeValidation, Err: err}
		}
	}

	if e.cfg.Logging {
		logArgs := []any{"tool", name, "agent", tc.AgentName(), "call_id", tc.CallID()}
		if e.cfg.LogArguments {
			logArgs = append(logArgs, "args", e.renderArgs(args))
		}
		tc.Logger().Debug("tool.call.start", logArgs...)
	}

	start := time.Now()
	result, err := impl.Call(tc, args)
	duration := time.Since(start)

	if err != nil {
		if e.cfg.Logging {
			tc.Logger().Error("tool.call.error",
				"tool", name,
				"agent", tc.AgentName(),
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			)
		}
		if toolErr, ok := err.(*Error); ok {
			return nil, toolErr
		}
		return nil, &Error{Tool: name, Message: err.Error(), Code: CodeExecution, Err: err}
	}

	if e.cfg.Logging {
		tc.Logger().Info("tool.call.success",
			"tool", name, "agent", tc.AgentName(), "duration_ms", duration.Milliseconds())
	}

	if e.cfg.Metadata {
		if mapping, ok := result.(map[string]any); ok {
			result = mergeMetadata(mapping, name, tc.AgentName(), duration, start)
		}
	}

	return result, nil
}

// renderArgs serializes arguments for logging, applying the configured
// truncation.
func (e *Executor) renderArgs(args map[string]any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return "<unserializable>"
	}
	return util.Truncate(string(raw), e.cfg.TruncateArgsTo)
}

// mergeMetadata copies the mapping result and adds execution metadata for
// keys the tool did not already set. The tool's own map is left untouched.
func mergeMetadata(result map[string]any, toolName, agentName string, duration time.Duration, start time.Time) map[string]any {
	merged := make(map[string]any, len(result)+4)
	for k, v := range result {
		merged[k] = v
	}

	inject := map[string]any{
		MetadataDuration:  duration.Milliseconds(),
		MetadataToolName:  toolName,
		MetadataAgentName: agentName,
		MetadataTimestamp: start.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range inject {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	return merged
}
