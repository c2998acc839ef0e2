package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

type geminiClient struct {
	models  *genai.Models
	log     *slog.Logger
	model   string
	temp    float32
	timeout time.Duration
	retry   retryPolicy
}

// NewGeminiClient creates a Client backed by the Gemini API.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "gemini_client", "model", cfg.Model)
	logger.Info("Gemini client initialized")
	return &geminiClient{
		models:  gi.Models,
		log:     logger,
		model:   cfg.Model,
		temp:    cfg.Temperature,
		timeout: cfg.Timeout,
		retry: retryPolicy{
			maxRetries: cfg.MaxRetries,
			delay:      cfg.RetryDelay,
			retriable:  geminiRetriable,
		},
	}, nil
}

func geminiRetriable(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Code == 429 || apiErr.Code == 500 || apiErr.Code == 503
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, apiErrPtr.Code == 429 || apiErrPtr.Code == 500 || apiErrPtr.Code == 503
	}
	return 0, false
}

func (c *geminiClient) Invoke(ctx context.Context, req Request) (*Response, error) {
	contents := geminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini request has no messages")
	}

	temp := c.temp
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: geminiDeclarations(req.Tools)}}
	} else if req.JSONResponse {
		// Gemini rejects a JSON mime type combined with function calling.
		cfg.ResponseMIMEType = "application/json"
	}

	c.log.DebugContext(ctx, "Invoking Gemini", "messages", len(contents), "tools", len(req.Tools))
	resp, err := callWithRetries(ctx, c.log, c.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return c.models.GenerateContent(ctx, c.model, contents, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return c.extract(ctx, resp)
}

func (c *geminiClient) extract(ctx context.Context, resp *genai.GenerateContentResponse) (*Response, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return nil, fmt.Errorf("gemini request blocked by safety filter: %s", reason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.log.WarnContext(ctx, "Gemini response missing candidates or content")
		return nil, ErrEmptyResponse
	}

	out := &Response{}
	var text strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode function call args: %w", err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%d_%s", i, part.FunctionCall.Name)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: id, Name: part.FunctionCall.Name, Arguments: args})
			continue
		}
		text.WriteString(part.Text)
	}
	out.Content = text.String()

	if out.Content == "" && len(out.ToolCalls) == 0 {
		c.log.WarnContext(ctx, "Gemini response has no text or function calls", "finish_reason", resp.Candidates[0].FinishReason)
		return nil, ErrEmptyResponse
	}
	return out, nil
}

// geminiContents maps the conversation to Gemini contents. Consecutive tool
// results are merged into a single user turn.
func geminiContents(msgs []Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case RoleUser, RoleSystem:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				if len(tc.Arguments) > 0 {
					_ = json.Unmarshal(tc.Arguments, &args)
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.Name,
				Response: map[string]any{"output": m.Content},
			}}
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents
}

func isFunctionResponseTurn(c *genai.Content) bool {
	return c.Role == genai.RoleUser && len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

func geminiDeclarations(defs []ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		decl := &genai.FunctionDeclaration{Name: d.Name, Description: d.Description}
		if len(d.Params) > 0 {
			schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
			for _, p := range d.Params {
				schema.Properties[p.Name] = &genai.Schema{Type: geminiType(p.Type), Description: p.Description}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

func geminiType(t ParamType) genai.Type {
	switch t {
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
