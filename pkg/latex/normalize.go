package latex

import (
	"regexp"
	"strings"
)

// Per-file cleanup applied while reading the archive.
var (
	// A % preceded by an even run of backslashes starts a comment; \% is a literal percent.
	lineCommentRe   = regexp.MustCompile(`(?m)((?:^|[^\\])(?:\\\\)*)%.*$`)
	commentBlockRe  = regexp.MustCompile(`(?s)\\begin\{comment\}.*?\\end\{comment\}`)
	iffalseBlockRe  = regexp.MustCompile(`(?s)\\iffalse\b.*?\\fi\b`)
	lineBreakRe     = regexp.MustCompile(`\\\\`)
	blankLinesRe    = regexp.MustCompile(`\n+`)
	hspaceRunRe     = regexp.MustCompile(`[ \t\r\f]{3,}`)
	beginDocumentRe = regexp.MustCompile(`\\begin\{document\}`)
)

// Prompt cleanup applied to the flattened document.
var (
	citationRe   = regexp.MustCompile(`~?\\cite[a-zA-Z]*\*?(?:\[[^\]]*\])*\{[^}]*\}`)
	environments = []*regexp.Regexp{
		environmentRe("figure"),
		environmentRe("table"),
		environmentRe("equation"),
		environmentRe("align"),
	}
	bibliographyRe = regexp.MustCompile(`(?s)(?:\\bibliography\{|\\begin\{thebibliography\}).*$`)
	appendixRe     = regexp.MustCompile(`(?s)\\appendix\b.*$`)
	commandArgRe   = regexp.MustCompile(`\\[a-zA-Z]+\*?(?:\[[^\]]*\])?\{[^}]*\}`)
	commandRe      = regexp.MustCompile(`\\[a-zA-Z]+\*?`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

func environmentRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)\\begin\{` + name + `\*?\}.*?\\end\{` + name + `\*?\}`)
}

// StripComments removes comments, commented-out blocks and line breaks from
// one source file and squeezes blank lines and long runs of spaces.
// Comments go first so a commented-out \begin{comment} cannot pair with a
// real \end{comment} further down. Removing a block can join its neighbours
// into a new comment or line break, so the rules repeat until the text stops
// changing.
func StripComments(text string) string {
	return untilStable(text, stripCommentsOnce)
}

func stripCommentsOnce(text string) string {
	text = lineCommentRe.ReplaceAllString(text, "${1}")
	text = commentBlockRe.ReplaceAllString(text, "")
	text = iffalseBlockRe.ReplaceAllString(text, "")
	text = lineBreakRe.ReplaceAllString(text, "")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	return hspaceRunRe.ReplaceAllString(text, " ")
}

// CleanForPrompt reduces a flattened document to running prose: citations,
// floats and display math are dropped, everything from the bibliography or
// appendix onwards is cut, and the remaining commands are blanked out. Like
// StripComments it repeats until the text stops changing.
func CleanForPrompt(text string) string {
	return untilStable(text, cleanForPromptOnce)
}

func cleanForPromptOnce(text string) string {
	text = citationRe.ReplaceAllString(text, "")
	for _, re := range environments {
		text = re.ReplaceAllString(text, "")
	}
	text = bibliographyRe.ReplaceAllString(text, "")
	text = appendixRe.ReplaceAllString(text, "")
	text = commandArgRe.ReplaceAllString(text, " ")
	text = commandRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// untilStable applies pass until it returns its input. Every rule removes
// text or shortens whitespace, so the loop ends.
func untilStable(text string, pass func(string) string) string {
	for {
		next := pass(text)
		if next == text {
			return next
		}
		text = next
	}
}

// HasDocumentBody reports whether text opens a document environment.
func HasDocumentBody(text string) bool {
	return beginDocumentRe.MatchString(text)
}
