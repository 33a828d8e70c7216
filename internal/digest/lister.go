package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gflarity/arxiv_digest/internal/config"
	"github.com/gflarity/arxiv_digest/pkg/arxiv"
)

// ArxivAPI is the part of the arXiv client used to list papers.
type ArxivAPI interface {
	ListBySubmissionDate(ctx context.Context, day time.Time, categories []string) ([]arxiv.APIEntry, error)
	ListByIDs(ctx context.Context, ids []string) ([]arxiv.APIEntry, error)
	RecentIDs(ctx context.Context, category string, day time.Time) ([]string, error)
}

// Lister finds the candidate papers of a day.
type Lister struct {
	api        ArxivAPI
	mode       string
	categories []string
	logger     *slog.Logger
}

// NewLister returns a Lister. mode is config.ListModeAPI or
// config.ListModeRecent.
func NewLister(api ArxivAPI, mode string, categories []string, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{api: api, mode: mode, categories: categories, logger: logger}
}

// List returns the papers for day, or the given papers when ids is not
// empty. Papers cross-listed in several categories appear once.
func (l *Lister) List(ctx context.Context, day time.Time, ids []string) ([]Paper, error) {
	var (
		entries []arxiv.APIEntry
		err     error
	)

	switch {
	case len(ids) > 0:
		entries, err = l.api.ListByIDs(ctx, ids)
	case l.mode == config.ListModeRecent:
		entries, err = l.listRecent(ctx, day)
	default:
		entries, err = l.api.ListBySubmissionDate(ctx, day, l.categories)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}

	seen := make(map[string]bool, len(entries))
	papers := make([]Paper, 0, len(entries))
	for _, e := range entries {
		p := NewPaper(e)
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		papers = append(papers, p)
	}

	l.logger.Info("listed papers", "day", day.Format("2006-01-02"), "mode", l.mode, "count", len(papers))
	return papers, nil
}

func (l *Lister) listRecent(ctx context.Context, day time.Time) ([]arxiv.APIEntry, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, category := range l.categories {
		found, err := l.api.RecentIDs(ctx, category, day)
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return l.api.ListByIDs(ctx, ids)
}
