// Package latex turns an arXiv LaTeX source archive into prompt-ready text.
//
// The work happens in three steps: reading the archive (ReadArchive), picking
// the root document and expanding its inclusions (Resolve), and stripping
// markup for prompting (CleanForPrompt).
package latex

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

const (
	// DocExt marks a document candidate.
	DocExt = ".tex"
	// BibExt marks a compiled bibliography.
	BibExt = ".bbl"

	// singleFileName is the entry name used for a gzip stream that holds one bare .tex file.
	singleFileName = "main" + DocExt

	maxArchiveSize = 200 << 20
	maxEntrySize   = 32 << 20
)

// ErrNotArchive is returned when the downloaded source is neither a tar
// archive nor a single compressed LaTeX file (arXiv serves a PDF for some papers).
var ErrNotArchive = errors.New("source is not a tar archive")

// Entry is a single file inside a source archive. Data is only retained for
// document and bibliography entries.
type Entry struct {
	Name string
	Data []byte
}

// Archive is the ordered list of entries read from a source archive.
type Archive struct {
	Entries []Entry
}

// NewArchive builds an archive from entries in the given order.
func NewArchive(entries ...Entry) *Archive {
	return &Archive{Entries: entries}
}

// OpenArchive reads the archive stored at path.
func OpenArchive(p string) (*Archive, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	return ReadArchive(f)
}

// ReadArchive reads a plain or gzip-compressed tar stream. A gzip stream that
// is not a tar but looks like LaTeX is returned as a one-entry archive.
func ReadArchive(r io.Reader) (*Archive, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	compressed := false
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
		compressed = true
	}

	data, err := io.ReadAll(io.LimitReader(src, maxArchiveSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	tr := tar.NewReader(bytes.NewReader(data))
	archive := &Archive{}
	for i := 0; ; i++ {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if i == 0 {
				return singleFile(data, compressed)
			}
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}

		entry := Entry{Name: strings.TrimPrefix(hdr.Name, "./")}
		if keepData(entry.Name) {
			entry.Data, err = io.ReadAll(io.LimitReader(tr, maxEntrySize))
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", entry.Name, err)
			}
		}
		archive.Entries = append(archive.Entries, entry)
	}

	return archive, nil
}

func singleFile(data []byte, compressed bool) (*Archive, error) {
	if compressed && (bytes.Contains(data, []byte(`\documentclass`)) || bytes.Contains(data, []byte(`\begin{document}`))) {
		return NewArchive(Entry{Name: singleFileName, Data: data}), nil
	}
	return nil, ErrNotArchive
}

func keepData(name string) bool {
	ext := path.Ext(name)
	return ext == DocExt || ext == BibExt
}

// Names returns the names of entries ending in ext, in archive order.
func (a *Archive) Names(ext string) []string {
	var names []string
	for _, e := range a.Entries {
		if strings.HasSuffix(e.Name, ext) {
			names = append(names, e.Name)
		}
	}
	return names
}
