package digest

import (
	"context"
	"fmt"

	"github.com/gflarity/arxiv_digest/pkg/llm"
)

const summarySystemPrompt = "Read this paper carefully and write an article of no more than 1500 words that introduces its key points."

const summaryUserPrompt = `Paper Title: %s

Paper Abstract: %s

Full Paper Content: %s

Please write in %s:`

// headingInstructions returns how the article should be structured for a
// paper type.
func headingInstructions(t llm.PaperType) string {
	switch t {
	case llm.Solution:
		return " Organize the article under these headings, each on its own line: **Limitations of Existing Approaches**, **Design Rationale** and **Implementation**."
	case llm.Exploratory:
		return " Organize the article under these headings, each on its own line: **Research Question** and **Findings**."
	case llm.Unknown:
		return ""
	}
	return ""
}

// Summarize asks the model for an article about paper. content is the
// normalized paper text; the abstract stands in when it is empty.
func (p *Processor) Summarize(ctx context.Context, paper Paper, content string, t llm.PaperType) (string, error) {
	body := llm.Truncate(content, p.cfg.MaxContentChars)
	if body == "" {
		body = paper.Abstract
	}

	article, err := p.gen.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemPrompt + headingInstructions(t)},
		{Role: llm.RoleUser, Content: fmt.Sprintf(summaryUserPrompt, paper.Title, paper.Abstract, body, p.cfg.Language)},
	})
	if err != nil {
		return "", err
	}
	return article, nil
}
