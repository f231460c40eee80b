package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaf-ai/raaf-go/agent"
	"github.com/raaf-ai/raaf-go/core"
	"github.com/raaf-ai/raaf-go/guardrail"
	"github.com/raaf-ai/raaf-go/handoff"
	"github.com/raaf-ai/raaf-go/hook"
	"github.com/raaf-ai/raaf-go/provider"
	"github.com/raaf-ai/raaf-go/tool"
)

func calculatorTool() tool.Tool {
	return tool.NewFunctionTool("calculate_sum", "Adds two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []any{"a", "b"},
		},
		func(tc *tool.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})
}

func TestRunFinalText(t *testing.T) {
	mock := provider.NewMockProvider().EnqueueText("hello there")
	r := New(mock)
	a := agent.New("Assistant", agent.WithInstructions("Be brief."))

	result, err := r.Run(context.Background(), a, "hi")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "hello there", result.FinalOutput)
	assert.Same(t, a, result.LastAgent)
	assert.Equal(t, 1, result.Turns)
	assert.True(t, result.Succeeded)
	assert.Equal(t, 15, result.Usage.TotalTokens)

	// transcript: user input then assistant reply
	require.Len(t, result.Messages, 2)
	assert.Equal(t, core.RoleUser, result.Messages[0].Role)
	assert.Equal(t, "hi", result.Messages[0].Content)
	assert.Equal(t, core.RoleAssistant, result.Messages[1].Role)
}

func TestRunToolLoop(t *testing.T) {
	mock := provider.NewMockProvider().
		EnqueueToolCall("calculate_sum", map[string]any{"a": 2, "b": 3}).
		EnqueueText("the sum is 5")

	r := New(mock)
	a := agent.New("Calculator", agent.WithTools(calculatorTool()))

	result, err := r.Run(context.Background(), a, "add 2 and 3")
	require.NoError(t, err)

	assert.Equal(t, "the sum is 5", result.FinalOutput)
	assert.Equal(t, 2, result.Turns)
	assert.Equal(t, 30, result.Usage.TotalTokens)

	// user, assistant(tool call), tool result, assistant(final)
	require.Len(t, result.Messages, 4)
	assert.Equal(t, core.RoleTool, result.Messages[2].Role)
	assert.Equal(t, "5", result.Messages[2].Content)
	assert.Equal(t, result.Messages[1].ToolCalls[0].ID, result.Messages[2].ToolCallID)

	// second request carries the full transcript so far
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 3)
}

func TestRunMaxTurnsExceeded(t *testing.T) {
	// the mock repeats its last response, so the model asks for the tool forever
	mock := provider.NewMockProvider().
		EnqueueToolCall("calculate_sum", map[string]any{"a": 1, "b": 1})

	r := New(mock)
	a := agent.New("Calculator", agent.WithTools(calculatorTool()))

	_, err := r.RunWithConfig(context.Background(), a, "loop forever", RunConfig{MaxTurns: 2})

	var exceeded *MaxTurnsExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 2, exceeded.Limit)
	assert.Equal(t, "Maximum turns (2) exceeded", err.Error())
	assert.Equal(t, 2, mock.CallCount())
}

func TestRunMaxTurnsPrecedence(t *testing.T) {
	mock := provider.NewMockProvider().
		EnqueueToolCall("calculate_sum", map[string]any{"a": 1, "b": 1})

	a := agent.New("Calculator",
		agent.WithTools(calculatorTool()), agent.WithMaxTurns(3))

	// the agent override applies when the run config is silent
	r := New(mock)
	_, err := r.Run(context.Background(), a, "loop")
	var exceeded *MaxTurnsExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 3, exceeded.Limit)

	// the run config wins over the agent override
	_, err = r.RunWithConfig(context.Background(), a, "loop", RunConfig{MaxTurns: 1})
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 1, exceeded.Limit)
}

func TestRunHandoff(t *testing.T) {
	agentB := agent.New("B", agent.WithInstructions("You are agent B."))
	agentA := agent.New("A", agent.WithHandoffs(agentB))

	mock := provider.NewMockProvider().
		EnqueueToolCall("transfer_to_b", map[string]any{}).
		EnqueueText("answer from B")

	r := New(mock)
	result, err := r.Run(context.Background(), agentA, "escalate this")
	require.NoError(t, err)

	assert.Equal(t, "B", result.LastAgent.Name())
	assert.Equal(t, "answer from B", result.FinalOutput)

	// the transfer is acknowledged in the transcript
	require.Len(t, result.Messages, 4)
	assert.Equal(t, core.RoleTool, result.Messages[2].Role)
	assert.Contains(t, result.Messages[2].Content, `"transferred": true`)

	// after the swap, requests use the new agent's instructions
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "You are agent B.", reqs[1].Instructions)
}

func TestRunHandoffAdvertisesSyntheticTools(t *testing.T) {
	agentB := agent.New("Agent B")
	agentA := agent.New("A", agent.WithHandoffs(agentB))

	mock := provider.NewMockProvider().EnqueueText("done")
	r := New(mock)

	_, err := r.Run(context.Background(), agentA, "hi")
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "transfer_to_agent_b", reqs[0].Tools[0].Name)
}

func TestRunDuplicateHandoffIgnored(t *testing.T) {
	agentB := agent.New("B")
	agentC := agent.New("C")
	agentA := agent.New("A", agent.WithHandoffs(agentB, agentC))

	first := &provider.Response{
		ID: core.NewID(),
		ToolCalls: []core.ToolCall{
			{ID: "call-1", Name: "transfer_to_b"},
			{ID: "call-2", Name: "transfer_to_c"},
		},
		FinishReason: "tool_calls",
	}

	mock := provider.NewMockProvider().Enqueue(first).EnqueueText("from B")
	r := New(mock)

	result, err := r.Run(context.Background(), agentA, "go")
	require.NoError(t, err)

	// the first transfer wins; the second is acknowledged and ignored
	assert.Equal(t, "B", result.LastAgent.Name())
	require.Len(t, result.Messages, 5)
	assert.Contains(t, result.Messages[2].Content, `"transferred": true`)
	assert.Contains(t, result.Messages[3].Content, `"transferred": false`)
}

func TestRunUnknownHandoffTargetFatal(t *testing.T) {
	agentA := agent.New("A") // declares no handoffs

	mock := provider.NewMockProvider().
		EnqueueToolCall("transfer_to_ghost", map[string]any{})

	r := New(mock)
	_, err := r.Run(context.Background(), agentA, "go")

	var unknown *handoff.UnknownTargetError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "A", unknown.Agent)
}

func TestRunInputGuardrailAborts(t *testing.T) {
	blocked := guardrail.NewFunc("blocklist",
		func(ctx context.Context, value string) (guardrail.Result, error) {
			return guardrail.Result{TripwireTriggered: true, Reason: "blocked term"}, nil
		})

	mock := provider.NewMockProvider().EnqueueText("never reached")
	r := New(mock)
	a := agent.New("A", agent.WithInputGuardrails(blocked))

	_, err := r.Run(context.Background(), a, "forbidden input")

	var trip *guardrail.TripwireError
	require.ErrorAs(t, err, &trip)
	assert.Equal(t, guardrail.StageInput, trip.Stage)
	assert.Equal(t, 0, mock.CallCount(), "provider must not be called after an input tripwire")
}

func TestRunOutputGuardrailAborts(t *testing.T) {
	secrets := guardrail.NewFunc("no_secrets",
		func(ctx context.Context, value string) (guardrail.Result, error) {
			return guardrail.Result{TripwireTriggered: true, Reason: "leak"}, nil
		})

	mock := provider.NewMockProvider().EnqueueText("api_key=123")
	r := New(mock)
	a := agent.New("A")

	_, err := r.RunWithConfig(context.Background(), a, "hi", RunConfig{
		OutputGuardrails: []guardrail.Guardrail{secrets},
	})

	var trip *guardrail.TripwireError
	require.ErrorAs(t, err, &trip)
	assert.Equal(t, guardrail.StageOutput, trip.Stage)
}

func TestRunProviderErrorPassThrough(t *testing.T) {
	rateLimited := &provider.RateLimitError{Provider: "mock"}
	mock := provider.NewMockProvider().Fail(rateLimited)

	r := New(mock)
	_, err := r.Run(context.Background(), agent.New("A"), "hi")

	// the runner neither wraps nor retries provider failures
	assert.Same(t, error(rateLimited), err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRunMalformedToolArguments(t *testing.T) {
	broken := &provider.Response{
		ID: core.NewID(),
		ToolCalls: []core.ToolCall{
			{ID: "call-1", Name: "calculate_sum", Arguments: []byte(`{not json`)},
		},
		FinishReason: "tool_calls",
	}

	mock := provider.NewMockProvider().Enqueue(broken)
	r := New(mock)
	a := agent.New("Calculator", agent.WithTools(calculatorTool()))

	_, err := r.Run(context.Background(), a, "add")

	var toolErr *tool.Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, tool.CodeValidation, toolErr.Code)
}

func TestRunHookEventOrder(t *testing.T) {
	agentB := agent.New("B")
	agentA := agent.New("A", agent.WithHandoffs(agentB), agent.WithTools(calculatorTool()))

	mock := provider.NewMockProvider().
		EnqueueToolCall("calculate_sum", map[string]any{"a": 1, "b": 2}).
		EnqueueToolCall("transfer_to_b", map[string]any{}).
		EnqueueText("done")

	var events []hook.Event
	listener := hook.ListenerFunc(func(p hook.Payload) (any, error) {
		events = append(events, p.Event)
		return nil, nil
	})

	r := New(mock)
	result, err := r.RunWithConfig(context.Background(), agentA, "go", RunConfig{
		Listeners: []hook.Listener{listener},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", result.FinalOutput)

	assert.Equal(t, []hook.Event{
		hook.EventStart,
		hook.EventToolStart,
		hook.EventToolEnd,
		hook.EventHandoff,
		hook.EventEnd,
	}, events)
}

func TestRunErrorHookFires(t *testing.T) {
	mock := provider.NewMockProvider().Fail(&provider.ServerError{Provider: "mock", StatusCode: 500})

	var failed []error
	listener := hook.ListenerFunc(func(p hook.Payload) (any, error) {
		if p.Event == hook.EventError {
			failed = append(failed, p.Err)
		}
		return nil, nil
	})

	r := New(mock)
	_, err := r.RunWithConfig(context.Background(), agent.New("A"), "hi", RunConfig{
		Listeners: []hook.Listener{listener},
	})

	require.Error(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, err, failed[0])
}

func TestRunPerRunListenersDoNotLeak(t *testing.T) {
	mock := provider.NewMockProvider().EnqueueText("ok")
	r := New(mock)
	a := agent.New("A")

	var calls int
	listener := hook.ListenerFunc(func(p hook.Payload) (any, error) {
		calls++
		return nil, nil
	})

	_, err := r.RunWithConfig(context.Background(), a, "first", RunConfig{
		Listeners: []hook.Listener{listener},
	})
	require.NoError(t, err)
	seen := calls

	// a second run without listeners must not fire the first run's listener
	_, err = r.Run(context.Background(), a, "second")
	require.NoError(t, err)
	assert.Equal(t, seen, calls)
}

func TestRunHookPayloadMetadata(t *testing.T) {
	mock := provider.NewMockProvider().EnqueueText("ok")
	r := New(mock)

	var payloads []hook.Payload
	listener := hook.ListenerFunc(func(p hook.Payload) (any, error) {
		payloads = append(payloads, p)
		return nil, nil
	})

	result, err := r.RunWithConfig(context.Background(), agent.New("A"), "hi", RunConfig{
		TraceID:   "trace-1",
		Metadata:  map[string]any{"tenant": "acme"},
		Listeners: []hook.Listener{listener},
	})
	require.NoError(t, err)

	require.NotEmpty(t, payloads)
	for _, p := range payloads {
		assert.Equal(t, result.RunID, p.RunID)
		assert.Equal(t, "A", p.Agent)
		assert.False(t, p.Timestamp.IsZero())
		assert.Equal(t, "trace-1", p.Context["trace_id"])
		assert.Equal(t, "acme", p.Context["tenant"])
	}
}

func TestRunToolMetadataMerged(t *testing.T) {
	mapping := tool.NewFunctionTool("report", "returns a mapping", nil,
		func(tc *tool.Context, args map[string]any) (any, error) {
			return map[string]any{"value": 1}, nil
		})

	mock := provider.NewMockProvider().
		EnqueueToolCall("report", map[string]any{}).
		EnqueueText("done")

	var toolResults []any
	listener := hook.ListenerFunc(func(p hook.Payload) (any, error) {
		if p.Event == hook.EventToolEnd {
			toolResults = append(toolResults, p.Result)
		}
		return nil, nil
	})

	r := New(mock)
	_, err := r.RunWithConfig(context.Background(), agent.New("A", agent.WithTools(mapping)), "go",
		RunConfig{Listeners: []hook.Listener{listener}})
	require.NoError(t, err)

	require.Len(t, toolResults, 1)
	merged := toolResults[0].(map[string]any)
	assert.Equal(t, "report", merged[tool.MetadataToolName])
	assert.Equal(t, "A", merged[tool.MetadataAgentName])
	assert.Contains(t, merged, tool.MetadataDuration)
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := provider.NewMockProvider().EnqueueText("never")
	r := New(mock)

	_, err := r.Run(ctx, agent.New("A"), "hi")

	var netErr *provider.NetworkError
	require.ErrorAs(t, err, &netErr)
}
