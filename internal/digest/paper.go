// Package digest turns a day's arXiv listing into a summarized HTML digest.
package digest

import (
	"time"

	"github.com/gflarity/arxiv_digest/internal/render"
	"github.com/gflarity/arxiv_digest/pkg/arxiv"
	"github.com/gflarity/arxiv_digest/pkg/llm"
)

// Paper is one arXiv submission considered for the digest.
type Paper struct {
	// ID is the arXiv identifier without its version suffix.
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Authors    []string  `json:"authors"`
	Categories []string  `json:"categories"`
	Published  time.Time `json:"published"`
	PDFURL     string    `json:"pdf_url"`
	AbsURL     string    `json:"abs_url"`
	// Score is the relevance score in [0, 10], zero when scoring is off.
	Score float64 `json:"score"`
}

// NewPaper builds a Paper from an API feed entry.
func NewPaper(e arxiv.APIEntry) Paper {
	id := e.ShortID()
	return Paper{
		ID:         id,
		Title:      e.CleanTitle(),
		Abstract:   e.CleanSummary(),
		Authors:    e.AuthorNames(),
		Categories: e.CategoryTerms(),
		Published:  e.Published,
		PDFURL:     e.PDFURL(),
		AbsURL:     AbsURL(id),
	}
}

// AbsURL returns the abstract page of an arXiv ID.
func AbsURL(id string) string {
	return "https://arxiv.org/abs/" + id
}

// Summary is a processed paper, ready to render.
type Summary struct {
	Paper   Paper         `json:"paper"`
	Type    llm.PaperType `json:"type"`
	Article string        `json:"article"`
	CodeURL string        `json:"code_url,omitempty"`
	// FromSource is false when the article was written from the abstract alone.
	FromSource bool `json:"from_source"`
}

// Item converts the summary into a digest entry.
func (s Summary) Item() render.Item {
	return render.Item{
		Title:   s.Paper.Title,
		Authors: s.Paper.Authors,
		Score:   s.Paper.Score,
		ArxivID: s.Paper.ID,
		Article: s.Article,
		PDFURL:  s.Paper.PDFURL,
		CodeURL: s.CodeURL,
		Type:    s.Type,
	}
}

// Digest is one rendered issue.
type Digest struct {
	// Day is the submission day the papers were listed for.
	Day time.Time `json:"day"`
	// Created is when the digest was built; it dates the email.
	Created   time.Time `json:"created"`
	HTML      string    `json:"html"`
	Summaries []Summary `json:"summaries"`
}

// Build renders summaries into a Digest.
func Build(day, created time.Time, summaries []Summary) (Digest, error) {
	items := make([]render.Item, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, s.Item())
	}
	html, err := render.Render(items)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Day: day, Created: created, HTML: html, Summaries: summaries}, nil
}

// PreviousDay returns midnight UTC of the day before now, the default day a
// run lists submissions for.
func PreviousDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}
