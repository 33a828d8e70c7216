package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxSourceSize = 100 << 20

// FetchStatus is the outcome of a source download that did not fail.
type FetchStatus int

const (
	// Found means the archive was written to FetchResult.Path.
	Found FetchStatus = iota
	// NotFound means arXiv has no source for the paper (HTTP 404).
	NotFound
)

func (s FetchStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	}
	return fmt.Sprintf("FetchStatus(%d)", int(s))
}

// FetchResult describes a completed source download.
type FetchResult struct {
	Status FetchStatus
	Path   string
}

// TransportError is returned for every download failure other than a 404.
type TransportError struct {
	ID         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("source download for %s failed with status %d", e.ID, e.StatusCode)
	}
	return fmt.Sprintf("source download for %s failed: %v", e.ID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DownloadSource downloads the source archive of a paper into dir. A missing
// source is reported as NotFound, not as an error; anything else that goes
// wrong is a *TransportError. Downloads are not retried.
func (c *Client) DownloadSource(ctx context.Context, id, dir string) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL+"/"+id, nil)
	if err != nil {
		return FetchResult{}, &TransportError{ID: id, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, &TransportError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return FetchResult{Status: NotFound}, nil
	case resp.StatusCode != http.StatusOK:
		return FetchResult{}, &TransportError{ID: id, StatusCode: resp.StatusCode}
	}

	path := filepath.Join(dir, strings.ReplaceAll(id, "/", "_")+".src")
	f, err := os.Create(path)
	if err != nil {
		return FetchResult{}, fmt.Errorf("failed to create source file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxSourceSize)); err != nil {
		return FetchResult{}, &TransportError{ID: id, Err: err}
	}
	return FetchResult{Status: Found, Path: path}, nil
}
