package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures a client for any OpenAI-compatible chat endpoint
// (OpenAI, Groq, OpenRouter, local gateways).
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// chatCompleter is the subset of *openai.Client used here.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAIClient struct {
	api     chatCompleter
	log     *slog.Logger
	model   string
	temp    float32
	timeout time.Duration
	retry   retryPolicy
}

// NewOpenAIClient creates a Client for an OpenAI-compatible API.
func NewOpenAIClient(cfg OpenAIConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	logger := log.With("component", "openai_client", "model", cfg.Model)
	logger.Info("OpenAI-compatible client initialized", "base_url", oc.BaseURL)
	return newOpenAIClient(openai.NewClientWithConfig(oc), cfg, logger), nil
}

func newOpenAIClient(api chatCompleter, cfg OpenAIConfig, log *slog.Logger) *openAIClient {
	return &openAIClient{
		api:     api,
		log:     log,
		model:   cfg.Model,
		temp:    cfg.Temperature,
		timeout: cfg.Timeout,
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			delay:      cfg.RetryDelay,
			retriable:  openAIRetriable,
		},
	}
}

func openAIRetriable(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, retriableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, retriableStatus(reqErr.HTTPStatusCode)
	}
	return 0, false
}

func retriableStatus(code int) bool {
	return code == 429 || code >= 500
}

func (c *openAIClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		Messages:    openAIMessages(req.System, req.Messages),
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = openAITools(req.Tools)
	} else if req.JSONResponse {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	c.log.DebugContext(ctx, "Invoking chat completion", "messages", len(chatReq.Messages), "tools", len(chatReq.Tools))
	resp, err := callWithRetries(ctx, c.log, c.retry, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return c.api.CreateChatCompletion(ctx, chatReq)
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.log.WarnContext(ctx, "Chat completion returned no choices")
		return nil, ErrEmptyResponse
	}
	msg := resp.Choices[0].Message
	out := &Response{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: rawArguments(tc.Function.Arguments),
		})
	}
	if out.Content == "" && len(out.ToolCalls) == 0 {
		c.log.WarnContext(ctx, "Chat completion has no content or tool calls", "finish_reason", resp.Choices[0].FinishReason)
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func openAIMessages(system string, msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case RoleAssistant:
			cm := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, tc := range m.ToolCalls {
				args := string(tc.Arguments)
				if args == "" {
					args = "{}"
				}
				cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
					ID:       tc.ID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: tc.Name, Arguments: args},
				})
			}
			out = append(out, cm)
		case RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				Name:       m.Name,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return out
}

func openAITools(defs []ToolDefinition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.JSONSchema(),
			},
		})
	}
	return tools
}

// rawArguments keeps provider arguments as JSON. Models occasionally emit an
// empty string for parameterless calls.
func rawArguments(s string) []byte {
	if s == "" {
		return []byte("{}")
	}
	return []byte(s)
}
