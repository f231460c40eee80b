package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageConstructors(t *testing.T) {
	user := NewUserMessage("hello")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)
	assert.False(t, user.HasToolCalls())

	calls := []ToolCall{{ID: "call-1", Name: "lookup", Arguments: []byte(`{"q":"x"}`)}}
	assistant := NewAssistantMessage("", calls)
	assert.Equal(t, RoleAssistant, assistant.Role)
	assert.True(t, assistant.HasToolCalls())
	assert.Equal(t, "lookup", assistant.ToolCalls[0].Name)

	result := NewToolMessage("call-1", `{"ok":true}`)
	assert.Equal(t, RoleTool, result.Role)
	assert.Equal(t, "call-1", result.ToolCallID)
}

func TestUsageAdd(t *testing.T) {
	var u Usage
	u.Add(Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	u.Add(Usage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10})

	assert.Equal(t, 17, u.PromptTokens)
	assert.Equal(t, 8, u.CompletionTokens)
	assert.Equal(t, 25, u.TotalTokens)
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.NotEmpty(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
