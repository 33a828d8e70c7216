package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gflarity/arxiv_digest/internal/app"
	workflows "github.com/gflarity/arxiv_digest/internal/workflows/digest"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Create the Temporal schedule that runs the digest every day",
	Long: `Schedule creates a Temporal schedule from SCHEDULE_CRON and SCHEDULE_TIMEZONE.
Each scheduled run digests the papers submitted the day before it starts.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("id", "arxiv-digest-daily", "schedule ID")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")

	if err := cfg.Validate(true); err != nil {
		return err
	}

	c, err := app.DialTemporal(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	params := workflows.WorkflowParams{PaperDelay: cfg.PaperDelay}
	opts := workflows.ScheduleOptions(id, cfg.ScheduleCron, cfg.ScheduleTimezone, cfg.TaskQueue, params)
	if _, err := c.ScheduleClient().Create(cmd.Context(), opts); err != nil {
		return fmt.Errorf("unable to create schedule: %w", err)
	}

	logger.Info("Created digest schedule", "id", id, "cron", cfg.ScheduleCron, "timezone", cfg.ScheduleTimezone)
	return nil
}
