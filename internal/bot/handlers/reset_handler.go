package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const resetTimeout = 30 * time.Second

// NewResetHandler returns a handler for the /reset command, which clears the
// sender's own conversation history.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")
	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Reset handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	user := userKey(update.Message.From)
	log.InfoContext(ctx, "User requested history reset", "chat_id", chatID, "user_id", user)

	resetCtx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	if err := h.deps.Agent.ResetHistory(resetCtx, user); err != nil {
		log.ErrorContext(ctx, "Failed to reset history", "error", err, "chat_id", chatID, "user_id", user)
		send(ctx, b, log, chatID, h.deps.Config.Messages.ResetError)
		return
	}

	send(ctx, b, log, chatID, h.deps.Config.Messages.ResetConfirm)
}
