package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gflarity/arxiv_digest/internal/memo"
	"github.com/gflarity/arxiv_digest/pkg/arxiv"
	"github.com/gflarity/arxiv_digest/pkg/latex"
	"github.com/gflarity/arxiv_digest/pkg/llm"
)

// SourceFetcher downloads the source archive of a paper into dir.
type SourceFetcher interface {
	DownloadSource(ctx context.Context, id, dir string) (arxiv.FetchResult, error)
}

// CodeFinder looks up the code repository of a paper. An empty URL means
// none is known.
type CodeFinder interface {
	CodeURL(ctx context.Context, arxivID string) (string, error)
}

// ProcessorConfig tunes a Processor.
type ProcessorConfig struct {
	// Language the article is written in.
	Language string
	// MaxContentChars bounds the paper text sent for summarization; zero
	// means no bound.
	MaxContentChars int
}

// Processor turns a Paper into a Summary: source text, paper type, article
// and code link. Each step is memoized per paper ID while the paper is being
// processed, so concurrent calls for one paper share the work. The cells are
// released when Process returns, whether the paper succeeded or not.
type Processor struct {
	fetcher SourceFetcher
	gen     llm.Generator
	code    CodeFinder
	cfg     ProcessorConfig
	logger  *slog.Logger

	contents *memo.Table[string]
	types    *memo.Table[llm.PaperType]
	articles *memo.Table[string]
}

// NewProcessor returns a Processor. code may be nil to skip the code lookup.
func NewProcessor(fetcher SourceFetcher, gen llm.Generator, code CodeFinder, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	return &Processor{
		fetcher:  fetcher,
		gen:      gen,
		code:     code,
		cfg:      cfg,
		logger:   logger,
		contents: memo.New[string](),
		types:    memo.New[llm.PaperType](),
		articles: memo.New[string](),
	}
}

// Process summarizes one paper. A missing or unusable source falls back to
// the abstract; a source transport error or a failed summary is returned.
func (p *Processor) Process(ctx context.Context, paper Paper) (Summary, error) {
	logger := p.logger.With("id", paper.ID)
	defer p.forget(paper.ID)

	content, err := p.contents.Get(paper.ID, func() (string, error) {
		return p.Content(ctx, paper.ID)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load source of %s: %w", paper.ID, err)
	}

	paperType, _ := p.types.Get(paper.ID, func() (llm.PaperType, error) {
		return llm.Classify(ctx, p.gen, logger, paper.Title, paper.Abstract, content), nil
	})

	article, err := p.articles.Get(paper.ID, func() (string, error) {
		return p.Summarize(ctx, paper, content, paperType)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize %s: %w", paper.ID, err)
	}

	summary := Summary{
		Paper:      paper,
		Type:       paperType,
		Article:    article,
		CodeURL:    p.codeURL(ctx, paper.ID),
		FromSource: content != "",
	}

	logger.Info("processed paper", "type", paperType, "fromSource", summary.FromSource, "articleLength", len(article))
	return summary, nil
}

// Content downloads and normalizes the LaTeX source of a paper. It returns
// an empty string when the paper has no usable source.
func (p *Processor) Content(ctx context.Context, id string) (string, error) {
	logger := p.logger.With("id", id)

	dir, err := os.MkdirTemp("", "arxiv-source-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	res, err := p.fetcher.DownloadSource(ctx, id, dir)
	if err != nil {
		return "", err
	}
	if res.Status == arxiv.NotFound {
		logger.Debug("source archive not found")
		return "", nil
	}

	archive, err := latex.OpenArchive(res.Path)
	if errors.Is(err, latex.ErrNotArchive) {
		logger.Debug("source is not a LaTeX archive")
		return "", nil
	}
	if err != nil {
		logger.Warn("failed to read source archive", "error", err)
		return "", nil
	}

	src := latex.Resolve(archive, logger)
	if _, ok := src.Flattened(); !ok && len(src.Files) > 0 {
		logger.Debug("main document unresolved, using every document", "files", len(src.Files))
	}
	return latex.CleanForPrompt(src.Text()), nil
}

func (p *Processor) codeURL(ctx context.Context, id string) string {
	if p.code == nil {
		return ""
	}
	u, err := p.code.CodeURL(ctx, id)
	if err != nil {
		p.logger.Debug("code lookup failed", "id", id, "error", err)
		return ""
	}
	return u
}

func (p *Processor) forget(id string) {
	p.contents.Forget(id)
	p.types.Forget(id)
	p.articles.Forget(id)
}
