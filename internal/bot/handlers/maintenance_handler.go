package handlers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const maintenanceTimeout = 5 * time.Minute

// NewMaintenanceHandler returns a handler that runs every scheduled task
// once, in name order, and reports the outcome. Registered behind AdminOnly.
func NewMaintenanceHandler(deps HandlerDeps) bot.HandlerFunc {
	return maintenanceHandler{deps}.Handle
}

type maintenanceHandler struct {
	deps HandlerDeps
}

func (h maintenanceHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "maintenance")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	runCtx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	send(ctx, b, log, chatID, h.run(runCtx))
}

// run executes the tasks and returns the report text.
func (h maintenanceHandler) run(ctx context.Context) string {
	log := h.deps.Logger.With("handler", "maintenance")

	names := make([]string, 0, len(h.deps.Tasks))
	for name := range h.deps.Tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	if len(names) == 0 {
		return "No maintenance tasks registered."
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		start := time.Now()
		err := h.deps.Tasks[name](ctx)
		if err != nil {
			log.ErrorContext(ctx, "Manual task run failed", "task_name", name, "error", err)
			lines = append(lines, fmt.Sprintf("❌ %s: %v", name, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("✅ %s (%s)", name, time.Since(start).Round(time.Millisecond)))
	}
	return strings.Join(lines, "\n")
}
