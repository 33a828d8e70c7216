package digest

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/gflarity/arxiv_digest/internal/digest"
)

// Activities carries the dependencies of the digest activities. Register it
// with a worker as a whole; the workflow refers to the methods by name.
type Activities struct {
	Pipeline  *digest.Pipeline
	Processor digest.PaperProcessor
}

// RenderInput is the input of RenderDigest.
type RenderInput struct {
	Day       time.Time        `json:"day"`
	Created   time.Time        `json:"created"`
	Summaries []digest.Summary `json:"summaries"`
}

// ListPapers lists, ranks and cuts the candidate papers of a run.
func (a *Activities) ListPapers(ctx context.Context, opts digest.RunOptions) ([]digest.Paper, error) {
	logger := activity.GetLogger(ctx)
	info := activity.GetInfo(ctx)
	logger.Info("Executing ListPapers",
		"workflowID", info.WorkflowExecution.ID,
		"runID", info.WorkflowExecution.RunID,
		"day", opts.Day.Format("2006-01-02"),
		"ids", len(opts.IDs))

	papers, err := a.Pipeline.Candidates(ctx, opts)
	if err != nil {
		logger.Error("ListPapers failed", "error", err)
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}

	logger.Info("ListPapers completed successfully", "papers", len(papers))
	return papers, nil
}

// ProcessPaper summarizes one paper.
func (a *Activities) ProcessPaper(ctx context.Context, paper digest.Paper) (digest.Summary, error) {
	logger := activity.GetLogger(ctx)
	info := activity.GetInfo(ctx)
	logger.Info("Executing ProcessPaper",
		"workflowID", info.WorkflowExecution.ID,
		"runID", info.WorkflowExecution.RunID,
		"id", paper.ID)

	summary, err := a.Processor.Process(ctx, paper)
	if err != nil {
		logger.Error("ProcessPaper failed", "id", paper.ID, "error", err)
		return digest.Summary{}, err
	}

	logger.Info("ProcessPaper completed successfully",
		"id", paper.ID,
		"type", summary.Type,
		"articleLength", len(summary.Article))
	return summary, nil
}

// RenderDigest renders the summaries into the digest page.
func (a *Activities) RenderDigest(ctx context.Context, in RenderInput) (digest.Digest, error) {
	d, err := digest.Build(in.Day, in.Created, in.Summaries)
	if err != nil {
		activity.GetLogger(ctx).Error("RenderDigest failed", "error", err)
		return digest.Digest{}, fmt.Errorf("failed to render digest: %w", err)
	}
	activity.GetLogger(ctx).Info("RenderDigest completed successfully", "papers", len(in.Summaries), "htmlLength", len(d.HTML))
	return d, nil
}

// DeliverDigest sends the digest through every configured notifier.
func (a *Activities) DeliverDigest(ctx context.Context, d digest.Digest) error {
	if err := a.Pipeline.Deliver(ctx, d); err != nil {
		activity.GetLogger(ctx).Error("DeliverDigest failed", "error", err)
		return fmt.Errorf("failed to deliver digest: %w", err)
	}
	activity.GetLogger(ctx).Info("DeliverDigest completed successfully", "papers", len(d.Summaries))
	return nil
}
