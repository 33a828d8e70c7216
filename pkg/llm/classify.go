package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ClassifyContentLimit bounds how much paper content goes into the
// classification prompt, in characters.
const ClassifyContentLimit = 2000

// PaperType is the coarse kind of a paper.
type PaperType int

const (
	Unknown PaperType = iota
	Solution
	Exploratory
)

func (t PaperType) String() string {
	switch t {
	case Solution:
		return "solution"
	case Exploratory:
		return "exploratory"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("PaperType(%d)", int(t))
}

// MarshalText encodes the type by name so it survives JSON payloads.
func (t PaperType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name; unrecognised names become Unknown.
func (t *PaperType) UnmarshalText(text []byte) error {
	*t, _ = ParsePaperType(string(text))
	return nil
}

// ParsePaperType maps a model reply to a PaperType by keyword. ok is false
// when neither keyword is present.
func ParsePaperType(reply string) (t PaperType, ok bool) {
	reply = strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(reply, "solution"):
		return Solution, true
	case strings.Contains(reply, "exploratory"):
		return Exploratory, true
	}
	return Unknown, false
}

const classifySystemPrompt = "You are a careful research assistant who classifies academic papers by the kind of contribution they make."

const classifyPromptTemplate = `Classify the following paper as one of two types.

Paper Title: %s
Paper Abstract: %s
%s
Types:
1. solution: proposes a new method, algorithm, framework or technical solution.
2. exploratory: runs experimental analysis, data exploration, studies a phenomenon or validates a theory.

Answer with exactly one word: solution or exploratory`

// Classify asks gen for the type of a paper. It never fails: a transport
// error or an unrecognised reply yields Unknown.
func Classify(ctx context.Context, gen Generator, logger *slog.Logger, title, abstract, content string) PaperType {
	if logger == nil {
		logger = slog.Default()
	}

	excerpt := ""
	if content != "" {
		excerpt = "Paper Content (excerpt): " + Truncate(content, ClassifyContentLimit) + "\n"
	}

	reply, err := gen.Generate(ctx, []Message{
		{Role: RoleSystem, Content: classifySystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf(classifyPromptTemplate, title, abstract, excerpt)},
	})
	if err != nil {
		logger.Error("paper classification failed", "title", title, "error", err)
		return Unknown
	}

	t, ok := ParsePaperType(reply)
	if !ok {
		logger.Warn("unexpected classification reply", "title", title, "reply", reply)
	}
	return t
}

// Truncate returns at most n characters of s; n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
