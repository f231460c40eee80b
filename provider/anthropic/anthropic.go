// Package anthropic implements provider.Provider over the Anthropic
// Messages API. Tool calls travel as content blocks rather than a separate
// field, so the adapter re-assembles the block stream into the runtime's
// normalized Response. Retry and error classification mirror the openai
// adapter.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/cenkalti/backoff/v4"

	"github.com/raaf-ai/raaf-go/core"
	"github.com/raaf-ai/raaf-go/provider"
)

const providerName = "anthropic"

// Options configure the Anthropic provider adapter.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64

	// MaxRetries caps retry attempts for rate-limit / server / network
	// failures.
	MaxRetries uint64
	// InitialRetryDelay seeds the exponential backoff.
	InitialRetryDelay time.Duration
	// MaxRetryDelay caps the per-attempt backoff delay.
	MaxRetryDelay time.Duration
}

// Provider wraps the Anthropic Messages API behind provider.Provider.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic provider authenticating with the given API key.
func New(apiKey string, optFns ...func(o *Options)) *Provider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:             string(anthropic.ModelClaude3_5Sonnet20241022),
		Temperature:       0.7,
		MaxTokens:         4096,
		MaxRetries:        3,
		InitialRetryDelay: 500 * time.Millisecond,
		MaxRetryDelay:     10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Provider{client: client, opts: opts}
}

// Complete implements provider.Provider with retry on transient failures.
func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, &provider.BadRequestError{Provider: providerName, Err: err}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialRetryDelay
	b.MaxInterval = p.opts.MaxRetryDelay

	return backoff.RetryWithData(func() (*provider.Response, error) {
		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			typed := classify(err)
			if !retryable(typed) {
				return nil, backoff.Permanent(typed)
			}
			return nil, typed
		}
		return convertResponse(resp), nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.opts.MaxRetries), ctx))
}

// buildParams assembles the Anthropic request. Instructions become the
// system prompt; system-role transcript messages are folded in with it.
func (p *Provider) buildParams(req provider.Request) (anthropic.MessageNewParams, error) {
	model := p.opts.Model
	if req.Model != "" {
		model = req.Model
	}

	messages, err := buildMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		Messages:    messages,
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
	}

	if system := systemPrompt(req); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	return params, nil
}

func systemPrompt(req provider.Request) string {
	parts := make([]string, 0, 2)
	if req.Instructions != "" {
		parts = append(parts, req.Instructions)
	}
	for _, m := range req.Messages {
		if m.Role == core.RoleSystem && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// buildMessages converts the normalized transcript into Anthropic block
// messages. Tool results become tool_result blocks inside user messages.
func buildMessages(msgs []core.Message) ([]anthropic.MessageParam, error) {
	messages := make([]anthropic.MessageParam, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			// folded into the system prompt
		case core.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case core.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				var input any
				if len(call.Arguments) > 0 {
					if err := json.Unmarshal(call.Arguments, &input); err != nil {
						return nil, fmt.Errorf("decode tool call %q arguments: %w", call.Name, err)
					}
				} else {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		case core.RoleTool:
			messages = append(messages,
				anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}

	return messages, nil
}

func buildTools(defs []provider.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))

	for _, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if props, ok := def.Parameters["properties"]; ok {
			inputSchema.Properties = props
		}
		if required, ok := def.Parameters["required"]; ok {
			inputSchema.Required = toStringSlice(required)
		}

		tool := anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
		if tool.OfTool != nil {
			tool.OfTool.Description = anthropic.String(def.Description)
		}
		tools = append(tools, tool)
	}

	return tools
}

func toStringSlice(v any) []string {
	switch typed := v.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// convertResponse flattens the content block stream into text plus an
// ordered tool call list.
func convertResponse(resp *anthropic.Message) *provider.Response {
	var text strings.Builder
	var toolCalls []core.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			use := block.AsToolUse()
			var args []byte
			if use.Input != nil {
				if raw, err := json.Marshal(use.Input); err == nil {
					args = raw
				}
			}
			toolCalls = append(toolCalls, core.ToolCall{
				ID:        use.ID,
				Name:      use.Name,
				Arguments: args,
			})
		}
	}

	return &provider.Response{
		ID:           resp.ID,
		Content:      text.String(),
		ToolCalls:    toolCalls,
		FinishReason: string(resp.StopReason),
		Usage: core.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

// classify maps SDK errors onto the provider error taxonomy.
func classify(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &provider.NetworkError{Provider: providerName, Err: err}
	}

	switch {
	case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
		return &provider.AuthenticationError{Provider: providerName, Err: err}
	case apiErr.StatusCode == 429:
		return &provider.RateLimitError{Provider: providerName, Err: err}
	case apiErr.StatusCode >= 500:
		return &provider.ServerError{Provider: providerName, StatusCode: apiErr.StatusCode, Err: err}
	case apiErr.StatusCode >= 400:
		return &provider.BadRequestError{Provider: providerName, Err: err}
	default:
		return &provider.NetworkError{Provider: providerName, Err: err}
	}
}

func retryable(err error) bool {
	switch err.(type) {
	case *provider.RateLimitError, *provider.ServerError, *provider.NetworkError:
		return true
	default:
		return false
	}
}

// String describes the adapter for logs.
func (p *Provider) String() string {
	return fmt.Sprintf("anthropic(%s)", p.opts.Model)
}
