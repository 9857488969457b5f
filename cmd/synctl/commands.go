package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"table-sync/internal/bootstrap"
	"table-sync/internal/config"
	"table-sync/internal/logger"
	"table-sync/internal/model"
	"table-sync/internal/security"
	"table-sync/internal/utils"
)

var errTablesFailed = errors.New("one or more tables failed to sync")

// withEngine loads config, connects both stores and hands the engine to fn
func withEngine(cmd *cobra.Command, fn func(engine *bootstrap.Engine) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	// stdout carries the JSON result, so logs go to stderr
	log := logger.New(os.Stderr, logger.Options{Level: level, Format: "text"})
	slog.SetDefault(log)

	engine, err := bootstrap.NewEngine(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	return fn(engine)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportResult(w io.Writer, report *model.SyncReport, message string) error {
	if err := writeJSON(w, map[string]interface{}{
		"success":              true,
		"message":              message,
		"run_id":               report.RunID,
		"total_records_synced": report.TotalRecordsSynced,
		"total_duration_ms":    report.TotalDurationMs,
		"tables":               report.Tables,
	}); err != nil {
		return err
	}
	if report.FailureCount > 0 {
		return errTablesFailed
	}
	return nil
}

func newFullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Replace every catalog table in the destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(engine *bootstrap.Engine) error {
				report, err := engine.Sync.SyncAll(cmd.Context())
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Full sync completed: %d/%d tables succeeded", report.SuccessCount, len(report.Tables))
				return reportResult(cmd.OutOrStdout(), report, msg)
			})
		},
	}
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table <name>",
		Short: "Replace a single catalog table in the destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(engine *bootstrap.Engine) error {
				stats, err := engine.Sync.SyncTable(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("table %q: %w", args[0], err)
				}
				if err := writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"success": stats.Success,
					"table":   stats,
				}); err != nil {
					return err
				}
				if !stats.Success {
					return errTablesFailed
				}
				return nil
			})
		},
	}
}

func newIncrementalCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "incremental",
		Short: "Upsert rows created or updated since a timestamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := utils.ParseTimestamp(since)
			if err != nil {
				return fmt.Errorf("--since: %w", err)
			}

			return withEngine(cmd, func(engine *bootstrap.Engine) error {
				report, err := engine.Sync.SyncIncremental(cmd.Context(), ts)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Incremental sync since %s completed: %d/%d tables succeeded", ts.Format(time.RFC3339), report.SuccessCount, len(report.Tables))
				return reportResult(cmd.OutOrStdout(), report, msg)
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only rows created or updated at or after this time (ISO 8601)")
	_ = cmd.MarkFlagRequired("since")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare source and destination row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(engine *bootstrap.Engine) error {
				report := engine.Status.Status(cmd.Context())
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"success":       true,
					"total_tables":  report.TotalTables,
					"sample_counts": report.SampleCounts,
					"sync_order":    report.SyncOrder,
				})
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		scopes  []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.Security.JWTSecret == "" {
				return errors.New("security.jwt_secret is not set")
			}

			for _, scope := range scopes {
				if scope != security.ScopeRead && scope != security.ScopeWrite {
					return fmt.Errorf("unknown scope %q, want %s or %s", scope, security.ScopeRead, security.ScopeWrite)
				}
			}

			manager := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
			token, err := manager.GenerateToken(subject, scopes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(token))
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "synctl", "token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{security.ScopeRead}, "granted scopes")
	return cmd
}
