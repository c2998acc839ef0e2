// Package main is the cardiobot entry point. serve runs the Telegram health
// assistant, risk prints a standalone risk assessment and import-foods loads
// the nutrition catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cardiobot",
		Short:         "Heart-health assistant for Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
		},
	}
	cmd.AddCommand(serveCmd(), riskCmd(), importFoodsCmd())
	return cmd
}
