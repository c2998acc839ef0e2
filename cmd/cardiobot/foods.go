package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/database"
	"github.com/edgard/cardiobot/internal/logger"
)

// foodWriter is the part of database.Store used by the importer.
type foodWriter interface {
	UpsertFood(ctx context.Context, food *database.Food) error
}

func importFoodsCmd() *cobra.Command {
	var dbPath, logLevel string
	cmd := &cobra.Command{
		Use:   "import-foods FILE",
		Short: "Load recipes from a JSON array into the food catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(cmd.ErrOrStderr(), logLevel, false)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			db, err := database.NewDB(dbPath)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			n, err := importFoods(cmd.Context(), database.NewStore(db, log), f, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d recipes into %s\n", n, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", config.DefaultDatabasePath, "SQLite database path")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}

// importFoods upserts every recipe in r, which holds a JSON array. It stops
// at the first invalid or unsaved recipe.
func importFoods(ctx context.Context, store foodWriter, r io.Reader, log *slog.Logger) (int, error) {
	var foods []database.Food
	if err := json.NewDecoder(r).Decode(&foods); err != nil {
		return 0, fmt.Errorf("failed to decode recipes: %w", err)
	}

	for i := range foods {
		if foods[i].RecipeName == "" {
			return i, fmt.Errorf("recipe %d (%s) has no recipe_name", i, foods[i].HashID)
		}
		if err := store.UpsertFood(ctx, &foods[i]); err != nil {
			return i, err
		}
		log.DebugContext(ctx, "Imported recipe", "hash_id", foods[i].HashID, "recipe_name", foods[i].RecipeName)
	}
	log.InfoContext(ctx, "Food catalog import finished", "count", len(foods))
	return len(foods), nil
}
