package digest

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gflarity/arxiv_digest/pkg/llm"
)

// StructuredCompleter returns a JSON reply decoded into out.
type StructuredCompleter interface {
	CompleteWithStruct(ctx context.Context, out any, systemPrompt, userPrompt string) error
}

// RelevanceResponse is the reply expected from the scoring prompt.
type RelevanceResponse struct {
	Score  float64 `json:"score" jsonschema:"description=Relevance to the reader from 0 for unrelated to 10 for a must read"`
	Reason string  `json:"reason" jsonschema:"description=One sentence explaining the score"`
}

const scoreSystemPrompt = "You are an expert research assistant who triages new arXiv papers for a reader."

const scoreUserPrompt = `The reader's research interests:
%s

Rate how relevant the following paper is to these interests on a scale from 0 to 10.

Paper Title: %s
Paper Abstract: %s`

// Scorer ranks papers against the reader's research interests.
type Scorer struct {
	llm       StructuredCompleter
	interests string
	logger    *slog.Logger
}

// NewScorer returns a Scorer. An empty interests string disables scoring.
func NewScorer(completer StructuredCompleter, interests string, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{llm: completer, interests: interests, logger: logger}
}

// Enabled reports whether papers are scored at all.
func (s *Scorer) Enabled() bool {
	return s != nil && s.interests != ""
}

// Rank scores every paper and sorts them by descending score. Ties keep their
// listing order, and a paper that cannot be scored gets 0.
func (s *Scorer) Rank(ctx context.Context, papers []Paper) []Paper {
	if !s.Enabled() {
		return papers
	}

	ranked := make([]Paper, len(papers))
	copy(ranked, papers)
	for i := range ranked {
		if ctx.Err() != nil {
			break
		}
		ranked[i].Score = s.score(ctx, ranked[i])
	}

	slices.SortStableFunc(ranked, func(a, b Paper) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

func (s *Scorer) score(ctx context.Context, p Paper) float64 {
	var resp RelevanceResponse
	err := s.llm.CompleteWithStruct(ctx, &resp, scoreSystemPrompt, fmt.Sprintf(scoreUserPrompt, s.interests, p.Title, p.Abstract))
	if err != nil {
		s.logger.Warn("failed to score paper", "id", p.ID, "error", err)
		return 0
	}
	score := min(max(resp.Score, 0), 10)
	s.logger.Debug("scored paper", "id", p.ID, "score", score, "reason", resp.Reason)
	return score
}

// Select returns at most n papers from the front of papers.
func Select(papers []Paper, n int) []Paper {
	if n <= 0 || len(papers) <= n {
		return papers
	}
	return papers[:n]
}

var _ StructuredCompleter = (*llm.Client)(nil)
