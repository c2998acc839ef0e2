package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/edgard/cardiobot/internal/llm"
	"github.com/edgard/cardiobot/internal/logger"
)

// Intent is the classifier's label for the latest user message.
type Intent string

const (
	IntentGreeting Intent = "GREETING"
	IntentOffTopic Intent = "OFF_TOPIC"
	IntentMedical  Intent = "MEDICAL"
)

func (i Intent) valid() bool {
	switch i {
	case IntentGreeting, IntentOffTopic, IntentMedical:
		return true
	}
	return false
}

type intentPayload struct {
	Intent string `json:"intent"`
}

// ParseIntent extracts the intent from raw classifier output. Fences and
// text around the outermost braces are ignored. Output that cannot be read
// yields IntentMedical and false.
func ParseIntent(raw string) (Intent, bool) {
	s := stripFences(raw)
	if first, last := strings.Index(s, "{"), strings.LastIndex(s, "}"); first >= 0 && last > first {
		s = s[first : last+1]
	}

	var p intentPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return IntentMedical, false
	}
	intent := Intent(strings.ToUpper(strings.TrimSpace(p.Intent)))
	if !intent.valid() {
		return IntentMedical, false
	}
	return intent, true
}

func stripFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// isIntentArtifact reports whether content is a classifier verdict, bare or
// fenced, which must not reach the medical model.
func isIntentArtifact(content string) bool {
	var p intentPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &p); err != nil {
		return false
	}
	return Intent(strings.ToUpper(strings.TrimSpace(p.Intent))).valid()
}

// Classifier labels user messages with the router model.
type Classifier struct {
	client llm.Client
	log    *slog.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(client llm.Client, log *slog.Logger) *Classifier {
	return &Classifier{client: client, log: log.With("component", "intent_classifier")}
}

// Classify labels the latest user message in msgs. Model failures and
// unreadable output fall back to IntentMedical. The returned message is the
// raw verdict, empty when the model failed. Only context cancellation is
// returned as an error.
func (c *Classifier) Classify(ctx context.Context, msgs []llm.Message) (Intent, llm.Message, error) {
	resp, err := c.client.Invoke(ctx, llm.Request{
		System:       ClassifierSystemPrompt,
		Messages:     conversationOnly(msgs),
		JSONResponse: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return IntentMedical, llm.Message{}, ctx.Err()
		}
		c.log.ErrorContext(ctx, "Intent classification failed, defaulting to MEDICAL", "error", err)
		return IntentMedical, llm.Message{}, nil
	}

	intent, ok := ParseIntent(resp.Content)
	if !ok {
		c.log.WarnContext(ctx, "Unreadable classifier output, defaulting to MEDICAL", "output", logger.Truncate(resp.Content, 50))
	}
	c.log.InfoContext(ctx, "Router decision", "intent", intent)
	return intent, llm.Message{Role: llm.RoleAssistant, Content: resp.Content}, nil
}

// conversationOnly keeps user and assistant text, dropping tool traffic.
func conversationOnly(msgs []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.Role == llm.RoleUser:
			out = append(out, m)
		case m.Role == llm.RoleAssistant && !m.HasToolCalls() && m.Content != "":
			out = append(out, llm.Message{Role: m.Role, Content: m.Content})
		}
	}
	return out
}
