package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is a command handler with its middleware. Commands with
// a Description are published in the Telegram command menu.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	Description string
}

func command(name, description string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     name,
		Handler:     h,
		Middleware:  mw,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: description,
	}
}

// RegisterAllCommands returns every bot command keyed by its slash form.
// Free text is served by the default handler from NewChatHandler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	cmds := []RegisteredHandler{
		command("start", "Introduction", NewTextHandler(deps, "start", welcomeText)),
		command("help", "How to use the bot", NewTextHandler(deps, "help", helpText)),
		command("risk", "Estimate your cardiovascular risk", NewRiskHandler(deps)),
		command("reset", "Clear your conversation history", NewResetHandler(deps)),
		// Admin only, kept out of the menu.
		command("maintenance", "", NewMaintenanceHandler(deps), AdminOnly(deps)),
	}

	handlers := make(map[string]RegisteredHandler, len(cmds))
	for _, c := range cmds {
		handlers["/"+c.Pattern] = c
	}
	return handlers
}
