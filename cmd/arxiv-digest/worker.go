package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"

	"github.com/gflarity/arxiv_digest/internal/app"
	workflows "github.com/gflarity/arxiv_digest/internal/workflows/digest"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a Temporal worker for the digest workflow",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(true); err != nil {
		return err
	}

	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return err
	}

	c, err := app.DialTemporal(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DigestWorkflow)
	w.RegisterActivity(a.Activities())

	logger.Info("Starting digest worker",
		"taskQueue", cfg.TaskQueue,
		"temporal", cfg.TemporalHostPort,
		"namespace", cfg.TemporalNamespace)

	if err := w.Run(worker.InterruptCh()); err != nil {
		return fmt.Errorf("unable to start worker: %w", err)
	}
	logger.Info("Worker stopped")
	return nil
}
