// Package core holds the leaf data model shared by every layer of the
// runtime: conversation messages, tool call requests, token usage
// accounting and id generation. It has no dependencies on the rest of the
// module so any package can import it.
package core

import "github.com/google/uuid"

// Usage accumulates token accounting across the model round-trips of a run.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add merges another usage sample into the receiver.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// NewID generates a new unique identifier for runs and tool calls.
func NewID() string { return uuid.NewString() }
