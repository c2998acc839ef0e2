package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/cardiobot/internal/llm"
)

// MedicalResponder answers health questions with the medical model and the
// tool set bound.
type MedicalResponder struct {
	client llm.Client
	tools  []llm.ToolDefinition
	log    *slog.Logger
}

// NewMedicalResponder creates a MedicalResponder offering tools to the model.
func NewMedicalResponder(client llm.Client, tools []llm.ToolDefinition, log *slog.Logger) *MedicalResponder {
	return &MedicalResponder{client: client, tools: tools, log: log.With("component", "medical_responder")}
}

// Respond invokes the medical model on the filtered conversation. With
// allowTools false no tools are bound and the model has to answer in text.
func (m *MedicalResponder) Respond(ctx context.Context, msgs []llm.Message, allowTools bool) (llm.Message, error) {
	req := llm.Request{
		System:       MedicalSystemPrompt,
		Messages:     withoutIntentArtifacts(msgs),
		JSONResponse: true,
	}
	if allowTools {
		req.Tools = m.tools
	}

	resp, err := m.client.Invoke(ctx, req)
	if err != nil {
		return llm.Message{}, fmt.Errorf("medical model: %w", err)
	}
	m.log.DebugContext(ctx, "Medical model replied",
		"tool_calls", len(resp.ToolCalls),
		"content_length", len(resp.Content),
		"tools_bound", allowTools,
	)
	return resp.Message(), nil
}

// withoutIntentArtifacts drops assistant messages that are bare classifier
// verdicts. Everything else passes through.
func withoutIntentArtifacts(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleAssistant && !m.HasToolCalls() && isIntentArtifact(m.Content) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Generator writes single-shot replies (greetings and refusals) with the
// router model, seeing only the latest user message.
type Generator struct {
	client llm.Client
	prompt string
	log    *slog.Logger
}

// NewGenerator creates a Generator with the given persona prompt.
func NewGenerator(name string, client llm.Client, prompt string, log *slog.Logger) *Generator {
	return &Generator{client: client, prompt: prompt, log: log.With("component", name+"_generator")}
}

// Generate replies to the latest user message in msgs.
func (g *Generator) Generate(ctx context.Context, msgs []llm.Message) (llm.Message, error) {
	last, ok := latestUserMessage(msgs)
	if !ok {
		return llm.Message{}, fmt.Errorf("no user message to reply to")
	}
	resp, err := g.client.Invoke(ctx, llm.Request{
		System:       g.prompt,
		Messages:     []llm.Message{last},
		JSONResponse: true,
	})
	if err != nil {
		return llm.Message{}, fmt.Errorf("generator model: %w", err)
	}
	return llm.Message{Role: llm.RoleAssistant, Content: resp.Content}, nil
}

func latestUserMessage(msgs []llm.Message) (llm.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			return msgs[i], true
		}
	}
	return llm.Message{}, false
}
