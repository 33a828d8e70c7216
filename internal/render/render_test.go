package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gflarity/arxiv_digest/pkg/llm"
)

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestRenderEmpty(t *testing.T) {
	page, err := Render(nil)
	require.NoError(t, err)

	assert.Equal(t, strings.Replace(Framework, "__CONTENT__", EmptyBlock, 1), page)
	assert.Contains(t, page, "No Papers Today. Take a Rest!")
	assert.NotContains(t, page, "__CONTENT__")
}

func TestRenderPapers(t *testing.T) {
	items := []Item{
		{
			Title:   "Sparse <Attention> at Scale",
			Authors: []string{"A", "B", "C", "D", "E", "F"},
			Score:   9,
			ArxivID: "2401.00001",
			Article: "**Limitations of Existing Approaches**\nDense attention is slow.\n\n**Implementation**\nBlock sparse kernels.",
			PDFURL:  "https://arxiv.org/pdf/2401.00001v1",
			CodeURL: "https://github.com/a/b",
			Type:    llm.Solution,
		},
		{
			Title:   "Do Models Count?",
			Authors: []string{"Ada"},
			ArxivID: "2401.00002",
			Article: "**Research Question**\nCan they?",
			PDFURL:  "https://arxiv.org/pdf/2401.00002v2",
			Type:    llm.Exploratory,
		},
		{
			Title:   "Untyped",
			ArxivID: "2401.00003",
			Article: "plain",
			PDFURL:  "https://arxiv.org/pdf/2401.00003v1",
		},
	}

	page, err := Render(items)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE HTML>"))
	assert.Equal(t, 2, strings.Count(page, "</br><br>"))

	doc := parse(t, page)
	require.Equal(t, 3, doc.Find("td.title").Length())

	first := doc.Find("td.title").First()
	assert.Contains(t, first.Text(), "Sparse <Attention> at Scale")
	assert.Equal(t, "Solution", first.Find("span.paper-type").Text())
	assert.Equal(t, "Exploratory", doc.Find("td.title").Eq(1).Find("span.paper-type").Text())
	assert.Equal(t, 0, doc.Find("td.title").Eq(2).Find("span.paper-type").Length())

	assert.Contains(t, doc.Find("td.authors").First().Text(), "A, B, C, D, E, ...")
	assert.Equal(t, 5, doc.Find(".full-star").Length())
	assert.Equal(t, "2401.00002", doc.Find("span.arxiv-id").Eq(1).Text())

	href, ok := doc.Find("a.pdf").First().Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "https://arxiv.org/pdf/2401.00001v1", href)

	require.Equal(t, 1, doc.Find("a.code").Length())
	code, _ := doc.Find("a.code").Attr("href")
	assert.Equal(t, "https://github.com/a/b", code)

	article := doc.Find("div.article").First()
	assert.Contains(t, article.Text(), "⚠️ Limitations of Existing Approaches")
	assert.Contains(t, article.Text(), "🔧 Implementation")
	assert.NotContains(t, article.Text(), "**")

	assert.Contains(t, page, "border-left: 4px solid #28a745")
	assert.Contains(t, page, "border-left: 4px solid #fd7e14")
	assert.Contains(t, page, "border-left: 4px solid #5bc0de")
}

func TestFormatArticleEscapes(t *testing.T) {
	got := string(FormatArticle("a <script>x</script>\n\n**Findings**\nb"))
	assert.Equal(t, `a &lt;script&gt;x&lt;/script&gt;<br><br><strong style="color: #6f42c1; font-size: 16px;">📊 Findings</strong><br>b`, got)
}

func TestFormatAuthors(t *testing.T) {
	testCases := []struct {
		name    string
		authors []string
		want    string
	}{
		{name: "none", authors: nil, want: ""},
		{name: "five", authors: []string{"A", "B", "C", "D", "E"}, want: "A, B, C, D, E"},
		{name: "six", authors: []string{"A", "B", "C", "D", "E", "F"}, want: "A, B, C, D, E, ..."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAuthors(tc.authors))
		})
	}
}

func TestStars(t *testing.T) {
	testCases := []struct {
		score    float64
		wantFull int
		wantHalf int
	}{
		{score: 0, wantFull: 0, wantHalf: 0},
		{score: 6, wantFull: 0, wantHalf: 0},
		{score: 6.1, wantFull: 0, wantHalf: 1},
		{score: 7, wantFull: 2, wantHalf: 1},
		{score: 7.5, wantFull: 4, wantHalf: 0},
		{score: 8, wantFull: 5, wantHalf: 0},
		{score: 10, wantFull: 5, wantHalf: 0},
	}

	for _, tc := range testCases {
		got := string(Stars(tc.score))
		assert.Equal(t, tc.wantFull, strings.Count(got, "full-star\">"), "score %v", tc.score)
		assert.Equal(t, tc.wantHalf, strings.Count(got, "half-star\">"), "score %v", tc.score)
	}
}
