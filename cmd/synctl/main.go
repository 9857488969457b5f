package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	configPath string
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "synctl",
		Short: "Replicate catalog tables from the source store to the destination store",
		Long: `synctl runs the same sync operations as the HTTP server, once, and prints
the result as JSON.

  synctl full                               Replace every catalog table
  synctl table <name>                       Replace one table
  synctl incremental --since <ISO 8601>     Upsert rows changed since a time
  synctl status                             Compare row counts
  synctl token --subject ops --scope sync:write

The exit code is 1 when any table failed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newFullCmd(),
		newTableCmd(),
		newIncrementalCmd(),
		newStatusCmd(),
		newTokenCmd(),
	)

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errTablesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
