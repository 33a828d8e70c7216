package digest

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/gflarity/arxiv_digest/internal/digest"
)

// WorkflowParams configures one digest run.
type WorkflowParams struct {
	// Day is the submission day to list; zero means the day before the run.
	Day time.Time `json:"day"`
	// IDs replaces the listing with these papers.
	IDs []string `json:"ids,omitempty"`
	// PaperDelay is the pause between two papers.
	PaperDelay time.Duration `json:"paper_delay"`
	// DryRun renders the digest without delivering it.
	DryRun bool `json:"dry_run"`
}

// WorkflowResult summarizes a finished run.
type WorkflowResult struct {
	Day    time.Time `json:"day"`
	Papers int       `json:"papers"`
	Failed []string  `json:"failed,omitempty"`
	HTML   string    `json:"html,omitempty"`
}

// DigestWorkflow lists the day's papers, summarizes them one at a time,
// renders the digest and delivers it. A paper that fails is skipped.
func DigestWorkflow(ctx workflow.Context, params WorkflowParams) (*WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	day := params.Day
	if day.IsZero() {
		day = digest.PreviousDay(workflow.Now(ctx))
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	// The LLM client already retries; a failed paper is skipped, not retried.
	processCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	// A retried delivery could send the email twice.
	deliverCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var a *Activities

	var papers []digest.Paper
	err := workflow.ExecuteActivity(ctx, a.ListPapers, digest.RunOptions{Day: day, IDs: params.IDs}).Get(ctx, &papers)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	logger.Info("Listed papers", "day", day.Format("2006-01-02"), "count", len(papers))

	result := &WorkflowResult{Day: day}
	var summaries []digest.Summary
	for i, paper := range papers {
		// wait at least PaperDelay between papers; the timer runs while the
		// paper is processed
		timer := workflow.NewTimer(ctx, params.PaperDelay)

		var summary digest.Summary
		err := workflow.ExecuteActivity(processCtx, a.ProcessPaper, paper).Get(ctx, &summary)
		if err != nil {
			logger.Error("Failed to process paper, skipping", "id", paper.ID, "error", err)
			result.Failed = append(result.Failed, paper.ID)
		} else {
			summaries = append(summaries, summary)
		}

		if i < len(papers)-1 {
			if err := timer.Get(ctx, nil); err != nil {
				return nil, err
			}
		}
	}
	result.Papers = len(summaries)

	var d digest.Digest
	in := RenderInput{Day: day, Created: workflow.Now(ctx), Summaries: summaries}
	if err := workflow.ExecuteActivity(ctx, a.RenderDigest, in).Get(ctx, &d); err != nil {
		return nil, fmt.Errorf("failed to render digest: %w", err)
	}

	if params.DryRun {
		logger.Info("Dry run, not delivering digest", "papers", result.Papers)
		result.HTML = d.HTML
		return result, nil
	}

	if err := workflow.ExecuteActivity(deliverCtx, a.DeliverDigest, d).Get(ctx, nil); err != nil {
		return result, fmt.Errorf("failed to deliver digest: %w", err)
	}

	logger.Info("Digest delivered", "papers", result.Papers, "failed", len(result.Failed))
	return result, nil
}

// WorkflowID names the run for a day, so a day is digested once.
func WorkflowID(day time.Time) string {
	return "arxiv-digest-" + day.Format("2006-01-02")
}

// StartOptions returns the options used to start a one-off run for day.
func StartOptions(day time.Time, taskQueue string) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:        WorkflowID(day),
		TaskQueue: taskQueue,
	}
}

// ScheduleOptions returns a schedule that starts DigestWorkflow on cron in
// timezone.
func ScheduleOptions(id, cron, timezone, taskQueue string, params WorkflowParams) client.ScheduleOptions {
	return client.ScheduleOptions{
		ID: id,
		Spec: client.ScheduleSpec{
			CronExpressions: []string{cron},
			TimeZoneName:    timezone,
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        "arxiv-digest-scheduled",
			TaskQueue: taskQueue,
			Workflow:  DigestWorkflow,
			Args:      []interface{}{params},
		},
	}
}
