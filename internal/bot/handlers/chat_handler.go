package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/cardiobot/internal/logger"
)

type chatHandler struct {
	deps HandlerDeps
}

// NewChatHandler returns the default handler. It answers every text message
// in private chats, and in groups only messages that mention the bot or reply
// to it.
func NewChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatHandler{deps}.Handle
}

func (h chatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "chat")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update without message or sender", "update_id", update.ID)
		return
	}
	if msg.From.IsBot {
		return
	}
	if msg.Chat.Type != models.ChatTypePrivate && !h.addressed(msg) {
		log.DebugContext(ctx, "Group message not addressed to the bot", "chat_id", msg.Chat.ID)
		return
	}

	chatID := msg.Chat.ID
	text := h.stripMention(msg.Text)
	if text == "" {
		log.InfoContext(ctx, "Received message without text", "chat_id", chatID)
		send(ctx, b, log, chatID, h.deps.Config.Messages.EmptyMessage)
		return
	}

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	user := userKey(msg.From)
	log.InfoContext(ctx, "Handling chat message", "chat_id", chatID, "user_id", user, "text", logger.Truncate(text, 50))

	answer, err := h.deps.Agent.Chat(ctx, user, text)
	if err != nil {
		log.ErrorContext(ctx, "Chat turn failed", "error", err, "chat_id", chatID, "user_id", user)
		if errors.Is(err, context.DeadlineExceeded) {
			send(ctx, b, log, chatID, h.deps.Config.Messages.Timeout)
			return
		}
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendParams(ctx, b, log, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            answer.Response,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
		ReplyMarkup:     suggestionsKeyboard(answer.SuggestedActions),
	})
}

// addressed reports whether a group message mentions the bot or replies to it.
func (h chatHandler) addressed(msg *models.Message) bool {
	info := h.deps.Config.Telegram.BotInfo
	if info == nil {
		return false
	}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == info.ID {
		return true
	}
	if info.Username == "" {
		return false
	}
	return strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(info.Username))
}

// stripMention removes the bot's @username and surrounding space.
func (h chatHandler) stripMention(text string) string {
	info := h.deps.Config.Telegram.BotInfo
	if info != nil && info.Username != "" {
		mention := "@" + strings.ToLower(info.Username)
		for {
			i := strings.Index(strings.ToLower(text), mention)
			if i < 0 {
				break
			}
			text = text[:i] + text[i+len(mention):]
		}
	}
	return strings.TrimSpace(text)
}

// suggestionsKeyboard renders suggested actions as one-tap reply buttons, one
// per row. No actions yields no markup.
func suggestionsKeyboard(actions []string) models.ReplyMarkup {
	rows := make([][]models.KeyboardButton, 0, len(actions))
	for _, a := range actions {
		if a = strings.TrimSpace(a); a != "" {
			rows = append(rows, []models.KeyboardButton{{Text: a}})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}
