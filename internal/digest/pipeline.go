package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PaperLister lists the candidate papers of a day.
type PaperLister interface {
	List(ctx context.Context, day time.Time, ids []string) ([]Paper, error)
}

// PaperProcessor summarizes one paper.
type PaperProcessor interface {
	Process(ctx context.Context, paper Paper) (Summary, error)
}

// Notifier delivers a finished digest.
type Notifier interface {
	Notify(ctx context.Context, d Digest) error
}

// PipelineConfig tunes a Pipeline.
type PipelineConfig struct {
	MaxPapers int
	// PaperDelay is the pause between two papers, to respect the LLM rate
	// limit.
	PaperDelay time.Duration
}

// Pipeline runs one digest end to end: list, rank, process each paper in
// turn, render and notify.
type Pipeline struct {
	lister    PaperLister
	scorer    *Scorer
	processor PaperProcessor
	notifiers []Notifier
	cfg       PipelineConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline returns a Pipeline. scorer may be nil.
func NewPipeline(lister PaperLister, scorer *Scorer, processor PaperProcessor, notifiers []Notifier, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		lister:    lister,
		scorer:    scorer,
		processor: processor,
		notifiers: notifiers,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOptions selects the papers of a run.
type RunOptions struct {
	// Day is the submission day to list.
	Day time.Time
	// IDs, when set, replaces the listing with these papers.
	IDs []string
}

// Report describes a finished run.
type Report struct {
	Digest Digest
	// Failed lists the IDs of papers that were skipped.
	Failed []string
}

// Run produces and delivers one digest. Papers that fail to process are
// logged and left out. The error reports listing, rendering or delivery
// failures.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	papers, err := p.Candidates(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var summaries []Summary
	for i, paper := range papers {
		if i > 0 {
			if err := sleep(ctx, p.cfg.PaperDelay); err != nil {
				return nil, err
			}
		}

		summary, err := p.processor.Process(ctx, paper)
		if err != nil {
			p.logger.Error("failed to process paper, skipping", "id", paper.ID, "error", err)
			report.Failed = append(report.Failed, paper.ID)
			continue
		}
		summaries = append(summaries, summary)
	}

	d, err := Build(opts.Day, p.now(), summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to render digest: %w", err)
	}
	report.Digest = d

	if err := p.Deliver(ctx, d); err != nil {
		return report, err
	}

	p.logger.Info("digest run finished", "papers", len(summaries), "failed", len(report.Failed))
	return report, nil
}

// Candidates lists, ranks and cuts the papers of a run.
func (p *Pipeline) Candidates(ctx context.Context, opts RunOptions) ([]Paper, error) {
	papers, err := p.lister.List(ctx, opts.Day, opts.IDs)
	if err != nil {
		return nil, err
	}
	papers = Select(p.scorer.Rank(ctx, papers), p.cfg.MaxPapers)
	p.logger.Info("selected papers", "count", len(papers))
	return papers, nil
}

// Deliver hands d to every notifier. All notifiers run even when one fails.
func (p *Pipeline) Deliver(ctx context.Context, d Digest) error {
	var errs []error
	for _, n := range p.notifiers {
		if err := n.Notify(ctx, d); err != nil {
			p.logger.Error("failed to deliver digest", "notifier", fmt.Sprintf("%T", n), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
