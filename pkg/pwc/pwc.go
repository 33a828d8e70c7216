// Package pwc looks up code repositories for arXiv papers on Papers with Code.
package pwc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gflarity/arxiv_digest/internal/httputil"
)

// DefaultBaseURL is the public Papers with Code API.
const DefaultBaseURL = "https://paperswithcode.com/api/v1"

type paperList struct {
	Count   int `json:"count"`
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

type repositoryList struct {
	Count   int `json:"count"`
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// Client queries the Papers with Code API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a client for baseURL; an empty baseURL means DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// CodeURL returns the first repository linked to the paper, or "" when the
// paper or its repositories are unknown.
func (c *Client) CodeURL(ctx context.Context, arxivID string) (string, error) {
	var papers paperList
	if err := c.getJSON(ctx, "/papers/?arxiv_id="+url.QueryEscape(arxivID), &papers); err != nil {
		return "", fmt.Errorf("failed to search paper %s: %w", arxivID, err)
	}
	if papers.Count == 0 || len(papers.Results) == 0 {
		return "", nil
	}

	var repos repositoryList
	if err := c.getJSON(ctx, "/papers/"+url.PathEscape(papers.Results[0].ID)+"/repositories/", &repos); err != nil {
		return "", fmt.Errorf("failed to list repositories of %s: %w", arxivID, err)
	}
	if repos.Count == 0 || len(repos.Results) == 0 {
		return "", nil
	}
	return repos.Results[0].URL, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
