package latex

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

var inclusionRe = regexp.MustCompile(`\\(?:input|include)\{([^}]+)\}`)

// Source is the text extracted from one archive.
type Source struct {
	// Files maps each document candidate to its comment-stripped text.
	Files map[string]string
	// Order lists the candidates in archive order.
	Order []string
	// Main is the resolved root document, empty when unresolved.
	Main string

	flattened string
	resolved  bool
}

// Flattened returns the root document with its inclusions expanded. The
// second result is false when no root document could be resolved.
func (s *Source) Flattened() (string, bool) {
	return s.flattened, s.resolved
}

// Text returns the flattened document, or every candidate joined in archive
// order when no root was resolved.
func (s *Source) Text() string {
	if s.resolved {
		return s.flattened
	}
	parts := make([]string, 0, len(s.Order))
	for _, name := range s.Order {
		parts = append(parts, s.Files[name])
	}
	return strings.Join(parts, "\n")
}

// Resolve picks the root document of an archive and flattens it.
//
// A single .bbl names the root (paper.bbl -> paper.tex). Without a .bbl a lone
// .tex is the root. Otherwise the first candidate, in archive order, that
// opens a document environment wins. Two or more .bbl files leave the
// archive unresolved.
func Resolve(a *Archive, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}

	tex := a.Names(DocExt)
	src := &Source{Files: make(map[string]string, len(tex)), Order: tex}
	if len(tex) == 0 {
		logger.Debug("no document candidates in archive")
		return src
	}

	main, scan := mainFromBibliography(tex, a.Names(BibExt))
	if scan {
		logger.Debug("choosing main document by structure", "candidates", len(tex))
	}

	data := make(map[string][]byte, len(a.Entries))
	for _, e := range a.Entries {
		data[e.Name] = e.Data
	}
	for _, name := range tex {
		text := StripComments(strings.ToValidUTF8(string(data[name]), ""))
		if main == "" && scan && HasDocumentBody(text) {
			main = name
			logger.Debug("chose main document", "file", name)
		}
		src.Files[name] = text
	}

	if main == "" {
		logger.Debug("failed to resolve main document")
		return src
	}

	src.Main = main
	src.flattened = Flatten(src.Files[main], src.Files)
	src.resolved = true
	return src
}

// mainFromBibliography applies the .bbl naming rules. scan reports whether
// the caller should fall back to the structural scan.
func mainFromBibliography(tex, bbl []string) (main string, scan bool) {
	switch len(bbl) {
	case 0:
		if len(tex) == 1 {
			return tex[0], false
		}
		return "", true
	case 1:
		want := strings.TrimSuffix(bbl[0], BibExt) + DocExt
		if slices.Contains(tex, want) {
			return want, false
		}
		return "", true
	default:
		return "", false
	}
}

// Flatten replaces every \input{name} and \include{name} in root with the
// text of name.tex from files. Unknown references become empty. Included
// text is not scanned again.
func Flatten(root string, files map[string]string) string {
	return inclusionRe.ReplaceAllStringFunc(root, func(directive string) string {
		m := inclusionRe.FindStringSubmatch(directive)
		return files[inclusionName(m[1])]
	})
}

func inclusionName(ref string) string {
	name := strings.TrimPrefix(strings.TrimSpace(ref), "./")
	if !strings.HasSuffix(name, DocExt) {
		name += DocExt
	}
	return name
}
