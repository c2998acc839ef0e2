// Package agent runs a conversational turn: intent classification, routing
// to the medical, greeting or refusal branch, the tool loop, and parsing of
// the final reply.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/database"
	"github.com/edgard/cardiobot/internal/llm"
	"github.com/edgard/cardiobot/internal/reply"
)

// ErrNoReply is returned when a turn ends without an assistant message.
var ErrNoReply = errors.New("turn produced no reply")

// HistoryStore persists conversations.
type HistoryStore interface {
	LoadRecent(ctx context.Context, userID string, limit int) ([]database.ChatMessage, error)
	AppendTurn(ctx context.Context, userID, userText, assistantText string) error
	DeleteUserMessages(ctx context.Context, userID string) (int64, error)
}

// Service is the entry point for chat turns.
type Service struct {
	router       *Router
	store        HistoryStore
	historyLimit int
	turnTimeout  time.Duration
	log          *slog.Logger
}

// NewService creates a Service.
func NewService(router *Router, store HistoryStore, cfg config.AgentConfig, log *slog.Logger) *Service {
	return &Service{
		router:       router,
		store:        store,
		historyLimit: cfg.HistoryLimit,
		turnTimeout:  cfg.TurnTimeout,
		log:          log.With("component", "agent_service"),
	}
}

// Chat answers one user message. The user message and the parsed reply are
// stored together only after the reply exists; storage failures are logged.
func (s *Service) Chat(ctx context.Context, userID, text string) (reply.Reply, error) {
	history := s.loadHistory(ctx, userID)
	st := NewState(history, text)

	turnCtx := ctx
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.router.Run(turnCtx, st); err != nil {
		return reply.Reply{}, fmt.Errorf("agent turn failed: %w", err)
	}

	last, ok := st.Last()
	if !ok || last.Role != llm.RoleAssistant {
		return reply.Reply{}, ErrNoReply
	}
	parsed := reply.Parse(last.Content)

	if err := s.store.AppendTurn(ctx, userID, text, parsed.Response); err != nil {
		s.log.ErrorContext(ctx, "Failed to save chat turn", "user_id", userID, "error", err)
	}

	s.log.InfoContext(ctx, "Chat turn answered",
		"user_id", userID,
		"thread_id", st.ThreadID,
		"intent", st.Intent,
		"history", len(history),
		"duration", time.Since(start),
	)
	return parsed, nil
}

// ResetHistory deletes the user's stored conversation.
func (s *Service) ResetHistory(ctx context.Context, userID string) error {
	deleted, err := s.store.DeleteUserMessages(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	s.log.InfoContext(ctx, "Conversation history reset", "user_id", userID, "deleted", deleted)
	return nil
}

// loadHistory returns the recent conversation oldest first. A failing store
// degrades to an empty history.
func (s *Service) loadHistory(ctx context.Context, userID string) []llm.Message {
	if s.historyLimit <= 0 {
		return nil
	}
	stored, err := s.store.LoadRecent(ctx, userID, s.historyLimit)
	if err != nil {
		s.log.WarnContext(ctx, "Continuing without history", "user_id", userID, "error", err)
		return nil
	}
	slices.Reverse(stored)

	msgs := make([]llm.Message, 0, len(stored))
	for _, m := range stored {
		role := llm.RoleUser
		if m.Role == database.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	return msgs
}
