package digest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gflarity/arxiv_digest/pkg/arxiv"
	"github.com/gflarity/arxiv_digest/pkg/llm"
)

// fakeGenerator answers classification prompts with typeReply and every
// other prompt with article. The first failArticles summary calls fail.
type fakeGenerator struct {
	typeReply    string
	article      string
	failArticles int

	classifyCalls int
	articleCalls  int
	lastSystem    string
	lastUser      string
}

func (g *fakeGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	if strings.Contains(msgs[0].Content, "classifies") {
		g.classifyCalls++
		return g.typeReply, nil
	}
	g.articleCalls++
	g.lastSystem = msgs[0].Content
	g.lastUser = msgs[1].Content
	if g.articleCalls <= g.failArticles {
		return "", errors.New("rate limited")
	}
	return g.article, nil
}

// fakeFetcher serves one canned archive for every paper.
type fakeFetcher struct {
	data   []byte
	status arxiv.FetchStatus
	err    error

	calls int
	dirs  []string
}

func (f *fakeFetcher) DownloadSource(_ context.Context, id, dir string) (arxiv.FetchResult, error) {
	f.calls++
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return arxiv.FetchResult{}, f.err
	}
	if f.status == arxiv.NotFound {
		return arxiv.FetchResult{Status: arxiv.NotFound}, nil
	}
	path := filepath.Join(dir, id+".src")
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		return arxiv.FetchResult{}, err
	}
	return arxiv.FetchResult{Status: arxiv.Found, Path: path}, nil
}

type fakeCodeFinder struct {
	url string
	err error
}

func (f fakeCodeFinder) CodeURL(context.Context, string) (string, error) {
	return f.url, f.err
}

type fakeCompleter struct {
	scores map[string]float64
	fail   map[string]bool
}

func (f fakeCompleter) CompleteWithStruct(_ context.Context, out any, _, user string) error {
	for title, score := range f.scores {
		if strings.Contains(user, "Paper Title: "+title+"\n") {
			if f.fail[title] {
				return errors.New("bad gateway")
			}
			out.(*RelevanceResponse).Score = score
			return nil
		}
	}
	return errors.New("unknown paper")
}

type fakeLister struct {
	papers []Paper
	err    error
}

func (f fakeLister) List(context.Context, time.Time, []string) ([]Paper, error) {
	return f.papers, f.err
}

type fakeProcessor struct {
	fail map[string]bool
}

func (f fakeProcessor) Process(_ context.Context, p Paper) (Summary, error) {
	if f.fail[p.ID] {
		return Summary{}, errors.New("summary failed")
	}
	return Summary{Paper: p, Type: llm.Solution, Article: "Article about " + p.Title}, nil
}

type recordingNotifier struct {
	digests []Digest
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, d Digest) error {
	n.digests = append(n.digests, d)
	return n.err
}

type recordingMailer struct {
	sent []string
	at   []time.Time
}

func (m *recordingMailer) Send(_ context.Context, html string, now time.Time) error {
	m.sent = append(m.sent, html)
	m.at = append(m.at, now)
	return nil
}

type recordingPoster struct {
	threads [][]string
}

func (p *recordingPoster) PostThread(_ context.Context, texts []string) error {
	p.threads = append(p.threads, texts)
	return nil
}

func tarball(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range order {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func samplePaper(id, title string) Paper {
	return Paper{
		ID:       id,
		Title:    title,
		Abstract: "We study " + title + ".",
		Authors:  []string{"Ada Lovelace"},
		PDFURL:   "https://arxiv.org/pdf/" + id + "v1",
		AbsURL:   AbsURL(id),
	}
}
