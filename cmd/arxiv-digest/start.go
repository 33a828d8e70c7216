package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gflarity/arxiv_digest/internal/app"
	workflows "github.com/gflarity/arxiv_digest/internal/workflows/digest"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start one digest workflow on Temporal",
	Long: `Start launches a single DigestWorkflow run named arxiv-digest-YYYY-MM-DD, so the
same day is not digested twice. A worker must be running on the task queue.`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().String("date", "", "submission day to digest, YYYY-MM-DD (default: yesterday, UTC)")
	startCmd.Flags().StringSlice("ids", nil, "digest these arXiv IDs instead of a day's listing")
	startCmd.Flags().Bool("dry-run", false, "render the digest without delivering it")
	startCmd.Flags().Bool("wait", false, "wait for the workflow to finish and print its result")

	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	ids, _ := cmd.Flags().GetStringSlice("ids")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	wait, _ := cmd.Flags().GetBool("wait")

	day, err := dayFlag(dateStr)
	if err != nil {
		return err
	}

	c, err := app.DialTemporal(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	params := workflows.WorkflowParams{Day: day, IDs: ids, PaperDelay: cfg.PaperDelay, DryRun: dryRun}
	we, err := c.ExecuteWorkflow(cmd.Context(), workflows.StartOptions(day, cfg.TaskQueue), workflows.DigestWorkflow, params)
	if err != nil {
		return fmt.Errorf("unable to execute workflow: %w", err)
	}
	logger.Info("Started workflow", "workflowID", we.GetID(), "runID", we.GetRunID())

	if !wait {
		return nil
	}

	var result workflows.WorkflowResult
	if err := we.Get(cmd.Context(), &result); err != nil {
		return fmt.Errorf("workflow failed: %w", err)
	}
	if dryRun {
		fmt.Println(result.HTML)
	}
	logger.Info("Workflow finished", "papers", result.Papers, "failed", result.Failed)
	return nil
}
