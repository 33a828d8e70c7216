// Package render builds the HTML digest sent to readers.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"

	"github.com/gflarity/arxiv_digest/pkg/llm"
)

const contentMarker = "__CONTENT__"

// Framework is the page every digest is embedded in.
const Framework = `<!DOCTYPE HTML>
<html>
<head>
  <style>
    .star-wrapper {
      font-size: 1.3em;
      line-height: 1;
      display: inline-flex;
      align-items: center;
    }
    .half-star {
      display: inline-block;
      width: 0.5em;
      overflow: hidden;
      white-space: nowrap;
      vertical-align: middle;
    }
    .full-star {
      vertical-align: middle;
    }
  </style>
</head>
<body>

<div>
    __CONTENT__
</div>

<br><br>
<div>
To unsubscribe, ask the sender to remove your address from the digest settings.
</div>

</body>
</html>
`

// EmptyBlock replaces the paper list when there is nothing to send.
const EmptyBlock = `
  <table border="0" cellpadding="0" cellspacing="0" width="100%" style="font-family: Arial, sans-serif; border: 1px solid #ddd; border-radius: 8px; padding: 16px; background-color: #f9f9f9;">
  <tr>
    <td style="font-size: 20px; font-weight: bold; color: #333;">
        No Papers Today. Take a Rest!
    </td>
  </tr>
  </table>
  `

const (
	accentColor      = "#5bc0de"
	solutionColor    = "#28a745"
	exploratoryColor = "#fd7e14"
	maxAuthors       = 5
)

// Item is one paper of the digest.
type Item struct {
	Title   string
	Authors []string
	Score   float64
	ArxivID string
	Article string
	PDFURL  string
	CodeURL string
	Type    llm.PaperType
}

type blockData struct {
	Title     string
	TypeLabel string
	TypeColor string
	Authors   string
	Stars     template.HTML
	ArxivID   string
	Article   template.HTML
	PDFURL    string
	CodeURL   string
}

var blockTemplate = template.Must(template.New("block").Parse(`
    <table border="0" cellpadding="0" cellspacing="0" width="100%" style="font-family: Arial, sans-serif; border: 1px solid #ddd; border-radius: 8px; padding: 16px; background-color: #f9f9f9; margin-bottom: 16px;">
    <tr>
        <td class="title" style="font-size: 20px; font-weight: bold; color: #333; padding-bottom: 8px;">
            {{.Title}}{{if .TypeLabel}}<span class="paper-type" style="display: inline-block; padding: 4px 8px; background-color: {{.TypeColor}}; color: white; font-size: 12px; font-weight: bold; border-radius: 3px; margin-left: 8px;">{{.TypeLabel}}</span>{{end}}
        </td>
    </tr>
    <tr>
        <td class="authors" style="font-size: 14px; color: #666; padding: 4px 0;">
            <strong>Authors:</strong> {{.Authors}}
        </td>
    </tr>
    <tr>
        <td style="font-size: 14px; color: #333; padding: 8px 0;">
            <strong>Relevance:</strong> {{.Stars}} &nbsp;&nbsp;&nbsp; <strong>arXiv ID:</strong> <span class="arxiv-id">{{.ArxivID}}</span>
        </td>
    </tr>
    <tr>
        <td style="font-size: 14px; color: #555; padding: 12px 0; line-height: 1.6; border-top: 1px solid #eee; border-bottom: 1px solid #eee; margin: 8px 0;">
            <div style="background-color: #fff; padding: 12px; border-radius: 4px; border-left: 4px solid {{.TypeColor}};">
                <strong style="color: #333; font-size: 15px;">📄 Paper Analysis</strong>
                <div class="article" style="margin-top: 8px; text-align: justify;">
                    {{.Article}}
                </div>
            </div>
        </td>
    </tr>
    <tr>
        <td style="padding: 12px 0;">
            <a class="pdf" href="{{.PDFURL}}" style="display: inline-block; text-decoration: none; font-size: 14px; font-weight: bold; color: #fff; background-color: #d9534f; padding: 10px 20px; border-radius: 4px;">📄 Read PDF</a>
            {{if .CodeURL}}<a class="code" href="{{.CodeURL}}" style="display: inline-block; text-decoration: none; font-size: 14px; font-weight: bold; color: #fff; background-color: #5bc0de; padding: 8px 16px; border-radius: 4px; margin-left: 8px;">Code</a>{{end}}
        </td>
    </tr>
</table>
`))

// Section headings the summarizer is asked to use, with their styled form.
var headings = []struct {
	marker string
	styled string
}{
	{"**Limitations of Existing Approaches**", `<strong style="color: #dc3545; font-size: 16px;">⚠️ Limitations of Existing Approaches</strong>`},
	{"**Design Rationale**", `<strong style="color: #007bff; font-size: 16px;">💡 Design Rationale</strong>`},
	{"**Implementation**", `<strong style="color: #28a745; font-size: 16px;">🔧 Implementation</strong>`},
	{"**Research Question**", `<strong style="color: #fd7e14; font-size: 16px;">🔍 Research Question</strong>`},
	{"**Findings**", `<strong style="color: #6f42c1; font-size: 16px;">📊 Findings</strong>`},
}

// Render returns the digest page for items. An empty list renders EmptyBlock.
func Render(items []Item) (string, error) {
	if len(items) == 0 {
		return strings.Replace(Framework, contentMarker, EmptyBlock, 1), nil
	}

	blocks := make([]string, 0, len(items))
	for _, item := range items {
		block, err := Block(item)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	content := "<br>" + strings.Join(blocks, "</br><br>") + "</br>"
	return strings.Replace(Framework, contentMarker, content, 1), nil
}

// Block renders the table for a single paper.
func Block(item Item) (string, error) {
	label, color := typeStyle(item.Type)
	data := blockData{
		Title:     item.Title,
		TypeLabel: label,
		TypeColor: color,
		Authors:   FormatAuthors(item.Authors),
		Stars:     Stars(item.Score),
		ArxivID:   item.ArxivID,
		Article:   FormatArticle(item.Article),
		PDFURL:    item.PDFURL,
		CodeURL:   item.CodeURL,
	}

	var buf bytes.Buffer
	if err := blockTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render block for %s: %w", item.ArxivID, err)
	}
	return buf.String(), nil
}

func typeStyle(t llm.PaperType) (label, color string) {
	switch t {
	case llm.Solution:
		return "Solution", solutionColor
	case llm.Exploratory:
		return "Exploratory", exploratoryColor
	case llm.Unknown:
		return "", accentColor
	}
	return "", accentColor
}

// FormatAuthors lists the first five authors, followed by ", ..." when there
// are more.
func FormatAuthors(authors []string) string {
	if len(authors) <= maxAuthors {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxAuthors], ", ") + ", ..."
}

// FormatArticle escapes a generated article and turns its section headings
// and line breaks into HTML.
func FormatArticle(article string) template.HTML {
	out := html.EscapeString(article)
	for _, h := range headings {
		out = strings.ReplaceAll(out, h.marker, h.styled)
	}
	out = strings.ReplaceAll(out, "\n\n", "<br><br>")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return template.HTML(out)
}

// Stars draws a relevance score as up to five stars. Scores of 6 or less get
// none, 8 or more get five, and the range between is split into half stars.
func Stars(score float64) template.HTML {
	const (
		low  = 6.0
		high = 8.0
		full = `<span class="full-star">⭐</span>`
		half = `<span class="half-star">⭐</span>`
	)

	switch {
	case score <= low:
		return ""
	case score >= high:
		return template.HTML(strings.Repeat(full, 5))
	}

	n := int(math.Ceil((score - low) * 10 / (high - low)))
	return template.HTML(`<div class="star-wrapper">` + strings.Repeat(full, n/2) + strings.Repeat(half, n%2) + `</div>`)
}
