package tool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sumParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"a": map[string]any{"type": "number"},
		"b": map[string]any{"type": "number"},
	},
	"required": []any{"a", "b"},
}

func sumTool() Tool {
	return NewFunctionTool("calculate_sum", "Adds two numbers", sumParams,
		func(tc *Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		})
}

func TestExecutorMetadataInjection(t *testing.T) {
	mapTool := NewFunctionTool("report", "returns a mapping", nil,
		func(tc *Context, args map[string]any) (any, error) {
			return map[string]any{"value": 42}, nil
		})

	exec := NewExecutor(DefaultConfig())
	result, err := exec.Execute(newTestContext(), []Tool{mapTool}, "report", map[string]any{})
	require.NoError(t, err)

	mapping, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 42, mapping["value"])
	assert.Equal(t, "report", mapping[MetadataToolName])
	assert.Equal(t, "tester", mapping[MetadataAgentName])
	assert.NotEmpty(t, mapping[MetadataTimestamp])
	assert.GreaterOrEqual(t, mapping[MetadataDuration].(int64), int64(0))
}

func TestExecutorMetadataDoesNotOverwrite(t *testing.T) {
	original := map[string]any{"tool_name": "custom", "value": 1}
	mapTool := NewFunctionTool("report", "returns a mapping", nil,
		func(tc *Context, args map[string]any) (any, error) { return original, nil })

	exec := NewExecutor(DefaultConfig())
	result, err := exec.Execute(newTestContext(), []Tool{mapTool}, "report", map[string]any{})
	require.NoError(t, err)

	mapping := result.(map[string]any)
	assert.Equal(t, "custom", mapping[MetadataToolName])
	// the tool's own map stays untouched
	assert.NotContains(t, original, MetadataDuration)
}

func TestExecutorNonMappingResultUnmodified(t *testing.T) {
	exec := NewExecutor(DefaultConfig())
	result, err := exec.Execute(newTestContext(), []Tool{sumTool()}, "calculate_sum",
		map[string]any{"a": 2.0, "b": 3.0})

	require.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestExecutorWrappedBypass(t *testing.T) {
	raw := map[string]any{"value": 1}
	wrapped := NewFunctionTool("self_managed", "handles own wrapping", sumParams,
		func(tc *Context, args map[string]any) (any, error) { return raw, nil },
		WithAlreadyWrapped())

	exec := NewExecutor(DefaultConfig())
	// invalid arguments: validation would reject this, the bypass must not
	result, err := exec.Execute(newTestContext(), []Tool{wrapped}, "self_managed", map[string]any{})

	require.NoError(t, err)
	mapping := result.(map[string]any)
	assert.NotContains(t, mapping, MetadataDuration)
	assert.Equal(t, 1, mapping["value"])
}

func TestExecutorNotFound(t *testing.T) {
	exec := NewExecutor(DefaultConfig())
	_, err := exec.Execute(newTestContext(), []Tool{sumTool()}, "unknown_tool", map[string]any{})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "unknown_tool", nf.Tool)
	assert.Equal(t, "tester", nf.Agent)
}

func TestExecutorValidationBeforeSideEffect(t *testing.T) {
	var invoked bool
	guarded := NewFunctionTool("guarded", "has required args", sumParams,
		func(tc *Context, args map[string]any) (any, error) {
			invoked = true
			return nil, nil
		})

	exec := NewExecutor(DefaultConfig())
	_, err := exec.Execute(newTestContext(), []Tool{guarded}, "guarded", map[string]any{"a": 1.0})

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.False(t, invoked, "tool must not run on invalid arguments")
}

func TestExecutorValidationDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validation = false

	permissive := NewFunctionTool("permissive", "accepts anything", sumParams,
		func(tc *Context, args map[string]any) (any, error) { return "ran", nil })

	exec := NewExecutor(cfg)
	result, err := exec.Execute(newTestContext(), []Tool{permissive}, "permissive", map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, "ran", result)
}

func TestExecutorErrorPassThrough(t *testing.T) {
	typed := &Error{Tool: "failing", Message: "bad input", Code: CodeValidation}
	failing := NewFunctionTool("failing", "always fails", nil,
		func(tc *Context, args map[string]any) (any, error) { return nil, typed })

	exec := NewExecutor(DefaultConfig())
	_, err := exec.Execute(newTestContext(), []Tool{failing}, "failing", map[string]any{})
	assert.Same(t, typed, err)
}

func TestExecutorWrapsPlainError(t *testing.T) {
	cause := errors.New("connection refused")
	failing := NewFunctionTool("failing", "always fails", nil,
		func(tc *Context, args map[string]any) (any, error) { return nil, cause })

	exec := NewExecutor(DefaultConfig())
	_, err := exec.Execute(newTestContext(), []Tool{failing}, "failing", map[string]any{})

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.True(t, errors.Is(err, cause))
}

func TestExecutorConcurrent(t *testing.T) {
	var count atomic.Int64
	counting := NewFunctionTool("count", "increments a counter", nil,
		func(tc *Context, args map[string]any) (any, error) {
			return map[string]any{"n": count.Add(1)}, nil
		})

	exec := NewExecutor(DefaultConfig())
	tools := []Tool{counting}

	const goroutines = 10
	const perGoroutine = 10

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*perGoroutine)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				result, err := exec.Execute(newTestContext(), tools, "count", map[string]any{})
				if err != nil {
					errs <- err
					continue
				}
				mapping := result.(map[string]any)
				if mapping[MetadataToolName] != "count" {
					errs <- errors.New("metadata missing under concurrency")
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent execution: %v", err)
	}
	assert.Equal(t, int64(goroutines*perGoroutine), count.Load())
}
