package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const sendMessageTimeout = 10 * time.Second

// send delivers a plain text message and logs delivery failures.
func send(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	sendParams(ctx, b, log, &bot.SendMessageParams{ChatID: chatID, Text: text})
}

func sendParams(ctx context.Context, b *bot.Bot, log *slog.Logger, params *bot.SendMessageParams) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	if _, err := b.SendMessage(sendCtx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", params.ChatID)
	}
}

// userKey is the history key of a Telegram user.
func userKey(u *models.User) string {
	return strconv.FormatInt(u.ID, 10)
}

// withBotName replaces the @botname placeholder in configured texts.
func withBotName(deps HandlerDeps, text string) string {
	info := deps.Config.Telegram.BotInfo
	if info == nil || info.Username == "" {
		return text
	}
	return strings.ReplaceAll(text, "@botname", "@"+info.Username)
}

// commandArgs returns the text after the leading /command token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	_, rest, _ := strings.Cut(text, " ")
	return strings.TrimSpace(rest)
}
