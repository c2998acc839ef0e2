package main

import (
	"context"
	"errors"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/cardiobot/internal/agent"
	"github.com/edgard/cardiobot/internal/bot"
	"github.com/edgard/cardiobot/internal/bot/handlers"
	"github.com/edgard/cardiobot/internal/bot/tasks"
	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/database"
	"github.com/edgard/cardiobot/internal/llm"
	"github.com/edgard/cardiobot/internal/logger"
	"github.com/edgard/cardiobot/internal/risk"
	"github.com/edgard/cardiobot/internal/telegram"
	"github.com/edgard/cardiobot/internal/tools"
)

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "./config.yaml", "Path to configuration file")
	return cmd
}

// serve wires every component and blocks until ctx is cancelled.
func serve(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	routerModel, err := llm.NewClient(ctx, cfg.LLM, llm.TierRouter, log)
	if err != nil {
		return fmt.Errorf("failed to create router model client: %w", err)
	}
	medicalModel, err := llm.NewClient(ctx, cfg.LLM, llm.TierMedical, log)
	if err != nil {
		return fmt.Errorf("failed to create medical model client: %w", err)
	}

	executor := tools.NewExecutor(store, store, cfg.Tools, log)
	router := agent.NewRouter(routerModel, medicalModel, executor, tools.Definitions(), cfg.Agent.MaxToolIterations, log)
	service := agent.NewService(router, store, cfg.Agent, log)

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: log, Store: store, Config: cfg})
	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Agent:  service,
		Risk:   risk.NewEngine(),
		Tasks:  taskMap,
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewChatHandler(hDeps)),
	)
	if err != nil {
		return err
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	commands := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, commands); err != nil {
		return err
	}
	if err := telegram.PublishCommands(ctx, tg, commands); err != nil {
		log.Warn("Command menu not published", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		return err
	}

	log.Info("Starting cardiobot")
	runErr := bot.NewBot(log, tg, sched).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	log.Info("cardiobot stopped")
	return nil
}
