package core

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem carries instructions injected by the runtime.
	RoleSystem Role = "system"
	// RoleUser carries end-user input.
	RoleUser Role = "user"
	// RoleAssistant carries model output, possibly with tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool carries a tool result paired to a prior tool call.
	RoleTool Role = "tool"
)

// ToolCall is a model-requested function invocation. Arguments stay raw
// until the runner decodes them, so a malformed payload is detected at
// dispatch time rather than during transport.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one entry of a run transcript. Messages are append-only: the
// runner builds the transcript by value and never rewrites earlier entries.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID pairs a tool-role message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// NewUserMessage builds a user-authored message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant message with optional tool calls.
func NewAssistantMessage(content string, toolCalls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// NewToolMessage builds the tool-result message answering callID.
func NewToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }
