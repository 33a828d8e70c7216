package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gflarity/arxiv_digest/internal/app"
	"github.com/gflarity/arxiv_digest/internal/digest"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build and send one digest in this process",
	Long: `Run lists the papers of a day (or the given IDs), summarizes them one at a
time and delivers the digest by email and, when configured, as a thread on X.
With --dry-run the HTML page is written to stdout instead.`,
	RunE: runDigest,
}

func init() {
	runCmd.Flags().String("date", "", "submission day to digest, YYYY-MM-DD (default: yesterday, UTC)")
	runCmd.Flags().StringSlice("ids", nil, "digest these arXiv IDs instead of a day's listing")
	runCmd.Flags().Bool("dry-run", false, "print the HTML digest instead of sending it")

	rootCmd.AddCommand(runCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	ids, _ := cmd.Flags().GetStringSlice("ids")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	day, err := dayFlag(dateStr)
	if err != nil {
		return err
	}
	if err := cfg.Validate(!dryRun); err != nil {
		return err
	}

	a, err := app.New(cfg, logger, app.Options{DryRun: dryRun, Out: os.Stdout})
	if err != nil {
		return err
	}

	report, err := a.Pipeline.Run(cmd.Context(), digest.RunOptions{Day: day, IDs: ids})
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "%d paper(s) skipped: %v\n", len(report.Failed), report.Failed)
	}
	return nil
}
