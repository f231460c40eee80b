package provider

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/raaf-ai/raaf-go/core"
)

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Responses are scripted in order; once the script is exhausted
// the last response repeats, which makes infinite tool loops easy to
// simulate. All methods are safe for concurrent use.
type MockProvider struct {
	mu        sync.Mutex
	script    []*Response
	next      int
	err       error
	callCount int
	requests  []Request
}

// NewMockProvider creates an empty mock. Complete fails until a response is
// enqueued or an error is set.
func NewMockProvider() *MockProvider { return &MockProvider{} }

// Enqueue appends a scripted response. Returns the mock for chaining.
func (m *MockProvider) Enqueue(resp *Response) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
	return m
}

// EnqueueText scripts a plain final text response.
func (m *MockProvider) EnqueueText(text string) *MockProvider {
	return m.Enqueue(&Response{
		ID:           core.NewID(),
		Content:      text,
		FinishReason: "stop",
		Usage:        core.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})
}

// EnqueueToolCall scripts a response requesting a single tool call with the
// given JSON-encodable arguments.
func (m *MockProvider) EnqueueToolCall(name string, args map[string]any) *MockProvider {
	raw, _ := json.Marshal(args)
	return m.Enqueue(&Response{
		ID: core.NewID(),
		ToolCalls: []core.ToolCall{
			{ID: core.NewID(), Name: name, Arguments: raw},
		},
		FinishReason: "tool_calls",
		Usage:        core.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})
}

// Fail makes every subsequent Complete call return err.
func (m *MockProvider) Fail(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NetworkError{Provider: "mock", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}

	if len(m.script) == 0 {
		return nil, &BadRequestError{Provider: "mock", Err: errNoScript}
	}

	resp := m.script[m.next]
	if m.next < len(m.script)-1 {
		m.next++
	}

	return resp, nil
}

// CallCount returns how many times Complete was invoked.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

var errNoScript = &scriptError{}

type scriptError struct{}

func (*scriptError) Error() string { return "no scripted responses" }
