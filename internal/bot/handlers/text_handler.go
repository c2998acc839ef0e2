package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cardiobot/internal/config"
)

// NewTextHandler returns a handler that answers a command with a configured
// message. The @botname placeholder is filled in before sending.
func NewTextHandler(deps HandlerDeps, command string, pick func(config.MessagesConfig) string) bot.HandlerFunc {
	log := deps.Logger.With("handler", command)
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		log.DebugContext(ctx, "Sending static reply", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
		send(ctx, b, log, msg.Chat.ID, withBotName(deps, pick(deps.Config.Messages)))
	}
}

func welcomeText(m config.MessagesConfig) string { return m.Welcome }

func helpText(m config.MessagesConfig) string { return m.Help }
