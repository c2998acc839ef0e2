package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/cardiobot/internal/bot/tasks"
	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/reply"
	"github.com/edgard/cardiobot/internal/risk"
)

// ChatService answers chat turns and manages per-user history.
type ChatService interface {
	Chat(ctx context.Context, userID, text string) (reply.Reply, error)
	ResetHistory(ctx context.Context, userID string) error
}

// RiskCalculator scores a cardiovascular risk assessment.
type RiskCalculator interface {
	CalculateRisk(in risk.Input) (risk.Result, error)
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Agent  ChatService
	Risk   RiskCalculator

	// Tasks are the scheduled jobs the admin can trigger by hand.
	Tasks map[string]tasks.ScheduledTaskFunc
}
