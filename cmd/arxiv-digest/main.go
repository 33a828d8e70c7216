// Package main is the entry point for the arxiv-digest CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gflarity/arxiv_digest/internal/config"
	"github.com/gflarity/arxiv_digest/internal/digest"
	"github.com/gflarity/arxiv_digest/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "arxiv-digest",
	Short: "Daily LLM-written digest of new arXiv papers",
	Long: `arxiv-digest lists the papers submitted to arXiv on a day, reads their LaTeX
sources, asks an LLM for an article about each one and emails the result as an
HTML digest.

Run a digest directly with "run", or hand it to Temporal with "worker",
"start" and "schedule".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		logger = logging.New(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-digest.yaml)")
}

// dayFlag parses a --date value; an empty value means the day before today.
func dayFlag(value string) (time.Time, error) {
	if value == "" {
		return digest.PreviousDay(time.Now()), nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", value, err)
	}
	return day, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
