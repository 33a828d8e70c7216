package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <opensearch:totalResults>%d</opensearch:totalResults>
  <opensearch:startIndex>%d</opensearch:startIndex>
  %s
</feed>`

func feedEntry(id string) string {
	return fmt.Sprintf(`<entry>
    <id>http://arxiv.org/abs/%s</id>
    <published>2025-08-29T17:59:01Z</published>
    <updated>2025-08-29T17:59:01Z</updated>
    <title>Sparse
      Attention   at Scale</title>
    <summary>  We study
      attention.  </summary>
    <author><name>Ada Lovelace</name></author>
    <author><name> Alan Turing </name></author>
    <link href="http://arxiv.org/abs/%s" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/%s" rel="related" type="application/pdf"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>`, id, id, id)
}

func TestAPIEntryAccessors(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		wantID    string
		wantShort string
	}{
		{name: "new style", id: "http://arxiv.org/abs/2508.21263v2", wantID: "2508.21263v2", wantShort: "2508.21263"},
		{name: "old style", id: "http://arxiv.org/abs/hep-th/9901001v1", wantID: "hep-th/9901001v1", wantShort: "hep-th/9901001"},
		{name: "no version", id: "http://arxiv.org/abs/2508.21263", wantID: "2508.21263", wantShort: "2508.21263"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := APIEntry{ID: tc.id}
			assert.Equal(t, tc.wantID, e.ArxivID())
			assert.Equal(t, tc.wantShort, e.ShortID())
			assert.Equal(t, "https://arxiv.org/pdf/"+tc.wantID, e.PDFURL())
		})
	}
}

func TestListBySubmissionDatePaginates(t *testing.T) {
	var queries []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/query", r.URL.Path)
		q := r.URL.Query()
		queries = append(queries, q.Get("search_query"))

		var entries []string
		switch q.Get("start") {
		case "0":
			for i := 0; i < maxResults; i++ {
				entries = append(entries, feedEntry(fmt.Sprintf("2508.%05dv1", i)))
			}
		case "100":
			entries = append(entries, feedEntry("2508.99999v1"))
		}
		fmt.Fprintf(w, feedTemplate, maxResults+1, 0, strings.Join(entries, "\n"))
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithPageDelay(0))
	day := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)

	entries, err := c.ListBySubmissionDate(context.Background(), day, []string{"cs.AI", "cs.LG"})
	require.NoError(t, err)
	require.Len(t, entries, maxResults+1)
	require.Len(t, queries, 2)
	assert.Equal(t, "(cat:cs.AI OR cat:cs.LG) AND submittedDate:[202508290000 TO 202508292359]", queries[0])

	e := entries[len(entries)-1]
	assert.Equal(t, "2508.99999", e.ShortID())
	assert.Equal(t, "Sparse Attention at Scale", e.CleanTitle())
	assert.Equal(t, "We study attention.", e.CleanSummary())
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, e.AuthorNames())
	assert.Equal(t, []string{"cs.LG", "cs.AI"}, e.CategoryTerms())
	assert.Equal(t, "http://arxiv.org/pdf/2508.99999v1", e.PDFURL())
}

func TestListByIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2401.00001,2401.00002", r.URL.Query().Get("id_list"))
		fmt.Fprintf(w, feedTemplate, 2, 0, feedEntry("2401.00001v1")+feedEntry("2401.00002v3"))
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL))
	entries, err := c.ListByIDs(context.Background(), []string{"2401.00001", "2401.00002"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2401.00002v3", entries[1].ArxivID())
}

func TestListAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewClient(WithBaseURL(ts.URL)).ListByIDs(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

const recentPage = `<html><body><dl id="articles">
<h3>Fri, 29 Aug 2025 (showing 2 of 2 entries)</h3>
<dt><a href="/abs/2508.00001" title="Abstract">arXiv:2508.00001</a></dt><dd>first</dd>
<dt><a href="/abs/2508.00002" title="Abstract">arXiv:2508.00002</a></dt><dd>second</dd>
<h3>Thu, 28 Aug 2025 (showing 1 of 1 entries)</h3>
<dt><a href="/abs/2508.00003" title="Abstract">arXiv:2508.00003</a></dt><dd>third</dd>
</dl></body></html>`

func TestRecentIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/cs.AI/recent", r.URL.Path)
		fmt.Fprint(w, recentPage)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL))
	testCases := []struct {
		name string
		day  time.Time
		want []string
	}{
		{name: "first day", day: time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), want: []string{"2508.00001", "2508.00002"}},
		{name: "second day", day: time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC), want: []string{"2508.00003"}},
		{name: "missing day", day: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := c.RecentIDs(context.Background(), "cs.AI", tc.day)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestDownloadSource(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/e-print/") {
		case "2401.00001":
			fmt.Fprint(w, "archive bytes")
		case "2401.00002":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL))
	dir := t.TempDir()

	t.Run("found", func(t *testing.T) {
		res, err := c.DownloadSource(context.Background(), "2401.00001", dir)
		require.NoError(t, err)
		assert.Equal(t, Found, res.Status)

		data, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		assert.Equal(t, "archive bytes", string(data))
	})

	t.Run("not found", func(t *testing.T) {
		res, err := c.DownloadSource(context.Background(), "2401.00002", dir)
		require.NoError(t, err)
		assert.Equal(t, NotFound, res.Status)
		assert.Empty(t, res.Path)
	})

	t.Run("transport error", func(t *testing.T) {
		_, err := c.DownloadSource(context.Background(), "2401.00003", dir)
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
		assert.Equal(t, "2401.00003", te.ID)
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, err := NewClient(WithBaseURL("http://127.0.0.1:1")).DownloadSource(context.Background(), "x", dir)
		var te *TransportError
		require.True(t, errors.As(err, &te))
		assert.Zero(t, te.StatusCode)
		assert.Error(t, te.Unwrap())
	})
}
