// Package openai implements provider.Provider over the OpenAI Chat
// Completions API (including function/tool calling). It adapts the
// runtime's normalized Request/Response structures into the SDK's message
// format, classifies API failures into the typed provider errors, and owns
// retry with exponential-jitter backoff so the runner can treat each
// Complete call as atomic.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/raaf-ai/raaf-go/core"
	"github.com/raaf-ai/raaf-go/provider"
)

const providerName = "openai"

// Options configure the OpenAI provider adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64

	// MaxRetries caps retry attempts for rate-limit / server / network
	// failures. Auth and bad-request errors are never retried.
	MaxRetries uint64
	// InitialRetryDelay seeds the exponential backoff.
	InitialRetryDelay time.Duration
	// MaxRetryDelay caps the per-attempt backoff delay.
	MaxRetryDelay time.Duration
}

// Provider wraps the OpenAI Chat Completions API behind provider.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI provider using the official client with ambient
// credentials.
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		MaxRetries:          3,
		InitialRetryDelay:   500 * time.Millisecond,
		MaxRetryDelay:       10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Provider{client: client, opts: opts}
}

// Complete implements provider.Provider with retry on transient failures.
func (p *Provider) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params := p.buildParams(req)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialRetryDelay
	b.MaxInterval = p.opts.MaxRetryDelay

	return backoff.RetryWithData(func() (*provider.Response, error) {
		resp, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			typed := classify(err)
			if !retryable(typed) {
				return nil, backoff.Permanent(typed)
			}
			return nil, typed
		}
		return convertResponse(resp)
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.opts.MaxRetries), ctx))
}

// buildParams assembles the OpenAI request including tool definitions.
func (p *Provider) buildParams(req provider.Request) openai.ChatCompletionNewParams {
	model := p.opts.Model
	if req.Model != "" {
		model = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, def := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  def.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// buildMessages converts the normalized transcript into SDK messages,
// prepending the active agent's instructions as the system message.
func buildMessages(req provider.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, call := range m.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   call.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	return messages
}

// convertResponse maps the SDK response back to the normalized shape,
// preserving tool call emission order.
func convertResponse(resp *openai.ChatCompletion) (*provider.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, backoff.Permanent(&provider.BadRequestError{
			Provider: providerName,
			Err:      errors.New("no choices returned"),
		})
	}

	choice := resp.Choices[0]

	toolCalls := make([]core.ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}

	return &provider.Response{
		ID:           resp.ID,
		Content:      choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: choice.FinishReason,
		Usage: core.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// classify maps SDK errors onto the provider error taxonomy.
func classify(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &provider.NetworkError{Provider: providerName, Err: err}
	}

	switch {
	case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
		return &provider.AuthenticationError{Provider: providerName, Err: err}
	case apiErr.StatusCode == 429:
		return &provider.RateLimitError{
			Provider:   providerName,
			RetryAfter: retryAfterHint(apiErr),
			Err:        err,
		}
	case apiErr.StatusCode >= 500:
		return &provider.ServerError{Provider: providerName, StatusCode: apiErr.StatusCode, Err: err}
	case apiErr.StatusCode >= 400:
		return &provider.BadRequestError{Provider: providerName, Err: err}
	default:
		return &provider.NetworkError{Provider: providerName, Err: err}
	}
}

// retryAfterHint extracts the server's Retry-After header when present.
func retryAfterHint(apiErr *openai.Error) time.Duration {
	if apiErr.Response == nil {
		return 0
	}
	header := apiErr.Response.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
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
	return fmt.Sprintf("openai(%s)", p.opts.Model)
}
