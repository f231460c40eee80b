// Package runner implements the turn loop at the heart of the runtime: it
// drives the conversation between a Provider and the active agent's tools,
// applies guardrails, resolves handoffs and emits lifecycle hooks. One
// Runner value serves any number of concurrent runs; all mutable per-run
// state lives on the stack of RunWithConfig.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raaf-ai/raaf-go/agent"
	"github.com/raaf-ai/raaf-go/core"
	"github.com/raaf-ai/raaf-go/guardrail"
	"github.com/raaf-ai/raaf-go/handoff"
	"github.com/raaf-ai/raaf-go/hook"
	"github.com/raaf-ai/raaf-go/logging"
	"github.com/raaf-ai/raaf-go/provider"
	"github.com/raaf-ai/raaf-go/tool"
)

// DefaultMaxTurns bounds model round-trips when neither the run config nor
// the agent sets a limit.
const DefaultMaxTurns = 10

// Options hold dependency and configuration overrides passed to New().
type Options struct {
	// MaxTurns is the default turn limit for runs without an override.
	MaxTurns int
	// ToolConfig is the default tool executor configuration.
	ToolConfig tool.Config
	// Hooks receives lifecycle events for every run of this runner.
	Hooks *hook.Dispatcher
	// Logger receives structured runtime events.
	Logger logging.Logger
}

// Runner owns the turn loop. Public methods are safe for concurrent use;
// the shared fields are all read-only after construction.
type Runner struct {
	provider   provider.Provider
	maxTurns   int
	toolConfig tool.Config
	hooks      *hook.Dispatcher
	handoffs   *handoff.Controller
	logger     logging.Logger
}

// New constructs a Runner over the given provider with optional overrides.
func New(p provider.Provider, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxTurns:   DefaultMaxTurns,
		ToolConfig: tool.DefaultConfig(),
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Hooks == nil {
		opts.Hooks = hook.NewDispatcher(opts.Logger)
	}

	return &Runner{
		provider:   p,
		maxTurns:   opts.MaxTurns,
		toolConfig: opts.ToolConfig,
		hooks:      opts.Hooks,
		handoffs:   handoff.NewController(opts.Logger),
		logger:     opts.Logger,
	}
}

// Run executes the turn loop with default configuration.
func (r *Runner) Run(ctx context.Context, a *agent.Agent, input string) (*RunResult, error) {
	return r.RunWithConfig(ctx, a, input, RunConfig{})
}

// RunWithConfig executes the turn loop starting at agent a.
//
// Each iteration: input guardrails (first turn only) → provider call →
// append the assistant message → dispatch requested tool calls in emission
// order, diverting handoff-shaped calls to the handoff controller → absent
// tool calls, output guardrails and termination. Turns increment once per
// model round-trip, never per tool call.
//
// Failure modes: *MaxTurnsExceededError at the turn limit, provider errors
// propagated unmodified, *guardrail.TripwireError on a tripped guardrail,
// tool errors re-raised after logging, *handoff.UnknownTargetError on a
// transfer outside the declared graph. The runner performs no retries.
func (r *Runner) RunWithConfig(ctx context.Context, a *agent.Agent, input string, cfg RunConfig) (*RunResult, error) {
	runID := core.NewID()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	hooks := r.hooks
	if len(cfg.Listeners) > 0 {
		hooks = hooks.Clone()
		for _, l := range cfg.Listeners {
			hooks.Register(l)
		}
	}

	state := &runState{
		runner:   r,
		runID:    runID,
		config:   cfg,
		hooks:    hooks,
		metadata: runMetadata(cfg),
		active:   a,
		maxTurns: pickMaxTurns(cfg, a, r.maxTurns),
		messages: []core.Message{core.NewUserMessage(input)},
	}

	state.fire(hook.Payload{Event: hook.EventStart})

	inputPipe := guardrail.NewPipeline(a.InputGuardrails(), nil, cfg.InputGuardrails, nil)
	if err := inputPipe.CheckInput(ctx, input); err != nil {
		return nil, state.fail(err)
	}

	return state.loop(ctx)
}

// runState is the mutable per-run state, exclusively owned by the goroutine
// executing the run. No locking required.
type runState struct {
	runner   *Runner
	runID    string
	config   RunConfig
	hooks    *hook.Dispatcher
	metadata map[string]any

	active   *agent.Agent
	maxTurns int
	turns    int
	messages []core.Message
	usage    core.Usage
}

func (s *runState) loop(ctx context.Context) (*RunResult, error) {
	for {
		s.turns++
		if s.turns > s.maxTurns {
			return nil, s.fail(&MaxTurnsExceededError{Limit: s.maxTurns})
		}

		resp, err := s.runner.provider.Complete(ctx, s.buildRequest())
		if err != nil {
			return nil, s.fail(err) // provider error types pass through unmodified
		}

		s.usage.Add(resp.Usage)
		s.messages = append(s.messages, core.NewAssistantMessage(resp.Content, resp.ToolCalls))

		s.runner.logger.Debug("runner.turn",
			"run_id", s.runID,
			"agent", s.active.Name(),
			"turn", s.turns,
			"tool_calls", len(resp.ToolCalls),
			"finish_reason", resp.FinishReason,
		)

		if len(resp.ToolCalls) == 0 {
			return s.finish(ctx, resp.Content)
		}

		next, err := s.dispatchBatch(ctx, resp.ToolCalls)
		if err != nil {
			return nil, s.fail(err)
		}
		if next != nil {
			s.active = next
		}
	}
}

// dispatchBatch executes the tool calls of one assistant message in the
// model's emission order. Handoff-shaped calls are resolved instead of
// dispatched; the first one wins and takes effect once the batch completes,
// so remaining tool calls still run against the requesting agent.
func (s *runState) dispatchBatch(ctx context.Context, calls []core.ToolCall) (*agent.Agent, error) {
	var next *agent.Agent

	exec := tool.NewExecutor(s.toolConfigFor(s.active))
	tools := s.active.Tools()

	for _, call := range calls {
		if handoff.IsHandoffCall(call.Name) {
			if next != nil {
				s.runner.logger.Warn("handoff.duplicate_ignored",
					"run_id", s.runID, "agent", s.active.Name(), "tool", call.Name)
				s.messages = append(s.messages,
					core.NewToolMessage(call.ID, `{"transferred": false, "reason": "transfer already in progress"}`))
				continue
			}

			target, err := s.runner.handoffs.Resolve(call, s.active)
			if err != nil {
				return nil, err
			}

			s.fire(hook.Payload{
				Event:     hook.EventHandoff,
				FromAgent: s.active.Name(),
				ToAgent:   target.Name(),
			})

			s.messages = append(s.messages,
				core.NewToolMessage(call.ID, handoff.AcknowledgeContent(target)))
			next = target
			continue
		}

		args, err := decodeArguments(call)
		if err != nil {
			return nil, err
		}

		impl, _ := s.active.FindTool(call.Name)
		s.fire(hook.Payload{
			Event:     hook.EventToolStart,
			ToolName:  call.Name,
			Tool:      impl,
			Arguments: args,
		})

		tc := tool.NewContext(ctx, s.runID, s.active.Name(), call.ID, s.runner.logger)
		result, err := exec.Execute(tc, tools, call.Name, args)
		if err != nil {
			return nil, err
		}

		s.fire(hook.Payload{
			Event:    hook.EventToolEnd,
			ToolName: call.Name,
			Tool:     impl,
			Result:   result,
		})

		s.messages = append(s.messages, core.NewToolMessage(call.ID, renderResult(result)))
	}

	return next, nil
}

// finish applies output guardrails and assembles the terminal result.
func (s *runState) finish(ctx context.Context, finalOutput string) (*RunResult, error) {
	outputPipe := guardrail.NewPipeline(nil, s.active.OutputGuardrails(), nil, s.config.OutputGuardrails)
	if err := outputPipe.CheckOutput(ctx, finalOutput); err != nil {
		return nil, s.fail(err)
	}

	s.fire(hook.Payload{Event: hook.EventEnd, Result: finalOutput})

	return &RunResult{
		RunID:       s.runID,
		Messages:    s.messages,
		LastAgent:   s.active,
		FinalOutput: finalOutput,
		Usage:       s.usage,
		Turns:       s.turns,
		Succeeded:   true,
	}, nil
}

// fail emits the error hook and returns err for propagation.
func (s *runState) fail(err error) error {
	s.runner.logger.Error("runner.failed",
		"run_id", s.runID, "agent", s.active.Name(), "turn", s.turns, "error", err.Error())
	s.fire(hook.Payload{Event: hook.EventError, Err: err})
	return err
}

// fire fills the always-present payload fields and dispatches.
func (s *runState) fire(p hook.Payload) {
	p.RunID = s.runID
	p.Agent = s.active.Name()
	p.Timestamp = time.Now().UTC()
	p.Context = s.metadata
	s.hooks.Fire(p)
}

// buildRequest assembles the provider request for the active agent,
// advertising its tools plus the synthetic handoff tools.
func (s *runState) buildRequest() provider.Request {
	tools := s.active.Tools()
	defs := make([]provider.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, provider.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	defs = append(defs, handoff.Definitions(s.active)...)

	return provider.Request{
		Model:        s.active.Model(),
		Instructions: s.active.Instructions(),
		Messages:     s.messages,
		Tools:        defs,
	}
}

// toolConfigFor resolves the executor configuration precedence:
// run override, then agent override, then runner default.
func (s *runState) toolConfigFor(a *agent.Agent) tool.Config {
	if s.config.ToolConfig != nil {
		return *s.config.ToolConfig
	}
	if cfg, ok := a.ToolConfig(); ok {
		return cfg
	}
	return s.runner.toolConfig
}

func pickMaxTurns(cfg RunConfig, a *agent.Agent, runnerDefault int) int {
	switch {
	case cfg.MaxTurns > 0:
		return cfg.MaxTurns
	case a.MaxTurns() > 0:
		return a.MaxTurns()
	case runnerDefault > 0:
		return runnerDefault
	default:
		return DefaultMaxTurns
	}
}

func runMetadata(cfg RunConfig) map[string]any {
	if len(cfg.Metadata) == 0 && cfg.TraceID == "" && cfg.GroupID == "" {
		return nil
	}
	meta := make(map[string]any, len(cfg.Metadata)+2)
	for k, v := range cfg.Metadata {
		meta[k] = v
	}
	if cfg.TraceID != "" {
		meta["trace_id"] = cfg.TraceID
	}
	if cfg.GroupID != "" {
		meta["group_id"] = cfg.GroupID
	}
	return meta
}

func decodeArguments(call core.ToolCall) (map[string]any, error) {
	if len(call.Arguments) == 0 {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return nil, &tool.Error{
			Tool:    call.Name,
			Message: fmt.Sprintf("failed to decode arguments: %v", err),
			Code:    tool.CodeValidation,
			Err:     err,
		}
	}
	return args, nil
}

// renderResult serializes a tool result for the transcript. Strings pass
// through; everything else is JSON encoded.
func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
