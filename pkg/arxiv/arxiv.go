// Package arxiv provides tools for listing papers on arxiv.org and
// downloading their source archives.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gflarity/arxiv_digest/internal/httputil"
)

const (
	defaultAPIURL    = "https://export.arxiv.org/api/query"
	defaultListURL   = "https://arxiv.org/list"
	defaultSourceURL = "https://arxiv.org/e-print"
	defaultUserAgent = "arxiv-digest/1.0 (+https://github.com/gflarity/arxiv_digest)"

	// maxResults is the arXiv API limit per request.
	maxResults = 100
)

// whitespaceRegex is used to clean up titles and abstracts.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// versionRegex matches the trailing version of an arXiv identifier.
var versionRegex = regexp.MustCompile(`v\d+$`)

// ArxivAPIResponse represents the XML response structure from ArXiv API
type ArxivAPIResponse struct {
	XMLName      xml.Name   `xml:"feed"`
	TotalResults int        `xml:"totalResults"`
	StartIndex   int        `xml:"startIndex"`
	ItemsPerPage int        `xml:"itemsPerPage"`
	Entries      []APIEntry `xml:"entry"`
}

// APIEntry represents a single paper entry in the ArXiv API response
type APIEntry struct {
	ID         string        `xml:"id"`
	Published  time.Time     `xml:"published"`
	Updated    time.Time     `xml:"updated"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Authors    []APIAuthor   `xml:"author"`
	Categories []APICategory `xml:"category"`
	Links      []APILink     `xml:"link"`
}

// APIAuthor represents an author in the ArXiv API response
type APIAuthor struct {
	Name string `xml:"name"`
}

// APICategory represents a category in the ArXiv API response
type APICategory struct {
	Term   string `xml:"term,attr"`
	Scheme string `xml:"scheme,attr"`
}

// APILink represents a related link (abstract page, PDF) of an entry.
type APILink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// ArxivID extracts the versioned ArXiv ID from the full ID URL.
func (e *APIEntry) ArxivID() string {
	// ID comes as "http://arxiv.org/abs/2508.21263v1" or "http://arxiv.org/abs/hep-th/9901001v1"
	if i := strings.Index(e.ID, "/abs/"); i >= 0 {
		return e.ID[i+len("/abs/"):]
	}
	parts := strings.Split(e.ID, "/")
	return parts[len(parts)-1]
}

// ShortID returns the ArXiv ID without its version suffix.
func (e *APIEntry) ShortID() string {
	return StripVersion(e.ArxivID())
}

// CleanTitle removes extra whitespace from the title
func (e *APIEntry) CleanTitle() string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(e.Title), " ")
}

// CleanSummary removes extra whitespace from the summary/abstract
func (e *APIEntry) CleanSummary() string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(e.Summary), " ")
}

// AuthorNames returns the author names in feed order.
func (e *APIEntry) AuthorNames() []string {
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		names = append(names, strings.TrimSpace(a.Name))
	}
	return names
}

// CategoryTerms returns the category terms, primary category first.
func (e *APIEntry) CategoryTerms() []string {
	terms := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		terms = append(terms, c.Term)
	}
	return terms
}

// PDFURL returns the PDF link of the entry.
func (e *APIEntry) PDFURL() string {
	for _, l := range e.Links {
		if l.Title == "pdf" {
			return l.Href
		}
	}
	return "https://arxiv.org/pdf/" + e.ArxivID()
}

// StripVersion removes a trailing "vN" from an ArXiv ID.
func StripVersion(id string) string {
	return versionRegex.ReplaceAllString(id, "")
}

// Client talks to the arXiv API, the listing pages and the e-print service.
type Client struct {
	httpClient *http.Client
	apiURL     string
	listURL    string
	sourceURL  string
	userAgent  string
	pageDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURL points the API, listing and e-print requests at baseURL
// (used against test servers).
func WithBaseURL(baseURL string) Option {
	return func(cl *Client) {
		baseURL = strings.TrimSuffix(baseURL, "/")
		cl.apiURL = baseURL + "/api/query"
		cl.listURL = baseURL + "/list"
		cl.sourceURL = baseURL + "/e-print"
	}
}

// WithPageDelay overrides the pause between paginated API requests.
func WithPageDelay(d time.Duration) Option {
	return func(cl *Client) { cl.pageDelay = d }
}

// NewClient returns a client for the public arXiv endpoints.
//
// IMPORTANT: ArXiv's Terms of Use ask for 3 seconds between API requests; the
// default page delay honours that, which means large result sets take a while.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiURL:     defaultAPIURL,
		listURL:    defaultListURL,
		sourceURL:  defaultSourceURL,
		userAgent:  defaultUserAgent,
		pageDelay:  3 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListBySubmissionDate fetches every paper submitted on the given day in any
// of the categories, following pagination.
func (c *Client) ListBySubmissionDate(ctx context.Context, day time.Time, categories []string) ([]APIEntry, error) {
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}

	// Format date for ArXiv API (YYYYMMDDHHMM), covering 00:00 to 23:59
	start := day.Format("200601021504")
	end := day.Add(24*time.Hour - time.Minute).Format("200601021504")

	cats := make([]string, 0, len(categories))
	for _, cat := range categories {
		cats = append(cats, "cat:"+cat)
	}
	query := fmt.Sprintf("(%s) AND submittedDate:[%s TO %s]", strings.Join(cats, " OR "), start, end)

	var all []APIEntry
	for offset := 0; ; offset += maxResults {
		if offset > 0 {
			if err := sleep(ctx, c.pageDelay); err != nil {
				return nil, err
			}
		}

		params := url.Values{}
		params.Set("search_query", query)
		params.Set("sortBy", "submittedDate")
		params.Set("sortOrder", "descending")
		params.Set("start", strconv.Itoa(offset))
		params.Set("max_results", strconv.Itoa(maxResults))

		feed, err := c.fetchFeed(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch ArXiv page: %w", err)
		}
		all = append(all, feed.Entries...)

		if offset+len(feed.Entries) >= feed.TotalResults || len(feed.Entries) == 0 {
			return all, nil
		}
	}
}

// ListByIDs fetches the metadata of the given papers, in batches of maxResults.
func (c *Client) ListByIDs(ctx context.Context, ids []string) ([]APIEntry, error) {
	var all []APIEntry
	for start := 0; start < len(ids); start += maxResults {
		if start > 0 {
			if err := sleep(ctx, c.pageDelay); err != nil {
				return nil, err
			}
		}
		batch := ids[start:min(start+maxResults, len(ids))]

		params := url.Values{}
		params.Set("id_list", strings.Join(batch, ","))
		params.Set("max_results", strconv.Itoa(len(batch)))

		feed, err := c.fetchFeed(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch papers by id: %w", err)
		}
		all = append(all, feed.Entries...)
	}
	return all, nil
}

// fetchFeed fetches a single page of results from the ArXiv API
func (c *Client) fetchFeed(ctx context.Context, params url.Values) (*ArxivAPIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build API request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to make API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var feed ArxivAPIResponse
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse XML response: %w", err)
	}
	return &feed, nil
}

// RecentIDs scrapes the "recent" listing page of a category and returns the
// IDs announced on the given day.
func (c *Client) RecentIDs(ctx context.Context, category string, day time.Time) ([]string, error) {
	pageURL := fmt.Sprintf("%s/%s/recent?skip=0&show=2000", c.listURL, category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error fetching paper list: %s", res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Headers look like "Fri, 30 Aug 2025 (showing 120 of 120 entries)".
	dateStr := day.Format("2 Jan 2006")
	var dateHeader *goquery.Selection
	doc.Find("dl#articles h3").EachWithBreak(func(_ int, h3 *goquery.Selection) bool {
		if strings.Contains(h3.Text(), dateStr) {
			dateHeader = h3
			return false
		}
		return true
	})
	if dateHeader == nil {
		return []string{}, nil
	}

	var ids []string
	// Entries follow the header as <dt>/<dd> siblings until the next header.
	for node := dateHeader.Next(); node.Length() > 0 && !node.Is("h3"); node = node.Next() {
		if !node.Is("dt") {
			continue
		}
		if href, ok := node.Find(`a[href^="/abs/"]`).Attr("href"); ok {
			if id := strings.TrimPrefix(href, "/abs/"); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
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
