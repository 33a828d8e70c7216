package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDocument = `\documentclass{article}
% preamble comment
\usepackage{graphicx}
\begin{document}
\title{A Study}


\section{Introduction}
We improve results by 50\% over prior work~\cite{smith2020}.   Really.\\
\begin{comment}
old draft
\end{comment}
\iffalse
hidden text
\fi
\begin{figure}[t]
\includegraphics{plot.pdf}
\caption{A plot}
\end{figure}
The loss is
\begin{equation}
L = \sum_i x_i
\end{equation}
minimised with \textbf{Adam}.
\begin{table*}
a & b
\end{table*}
\bibliography{refs}
\appendix
\section{Proofs}
`

func TestStripComments(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "line comment", input: "a % note\nb", want: "a \nb"},
		{name: "comment at line start", input: "% note\nb", want: "\nb"},
		{name: "escaped percent", input: `50\% done`, want: `50\% done`},
		{name: "comment after line break", input: "x\\\\% note\ny", want: "x\ny"},
		{name: "comment block", input: `x\begin{comment}hidden\end{comment}y`, want: "xy"},
		{name: "iffalse block", input: "\\iffalse\nold\n\\fi\nkept", want: "\nkept"},
		{name: "blank lines", input: "a\n\n\nb", want: "a\nb"},
		{name: "line breaks", input: "line\\\\\nnext", want: "line\nnext"},
		{name: "space runs", input: "a \t  b", want: "a b"},
		{name: "two spaces survive", input: "a  b", want: "a  b"},
		{
			name:  "block removal exposes a comment",
			input: `\input{x}\\begin{comment}\end{comment}\% `,
			want:  `\input{x}`,
		},
		{
			name:  "commented delimiter does not pair",
			input: "keep % \\begin{comment}\ntext\n\\end{comment}",
			want:  "keep \ntext\n\\end{comment}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripComments(tc.input))
		})
	}
}

func TestCleanForPrompt(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "citation", input: `Results~\cite{foo} are good`, want: "Results are good"},
		{name: "citation variants", input: `see \citep[p.~2]{a,b} and \citet{c}.`, want: "see and ."},
		{name: "figure", input: `A\begin{figure}\includegraphics{x}\end{figure}B`, want: "AB"},
		{name: "starred equation", input: `x\begin{equation*}y=1\end{equation*}z`, want: "xz"},
		{name: "bibliography to end", input: `Intro \bibliography{refs} trailing`, want: "Intro"},
		{name: "appendix to end", input: `Body \appendix \section{Proofs} proof`, want: "Body"},
		{name: "commands", input: `\section{Intro} We \emph{really} propose\newline it`, want: "We propose it"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanForPrompt(tc.input))
		})
	}
}

func TestNormalizationIsIdempotent(t *testing.T) {
	stripped := StripComments(sampleDocument)
	assert.Equal(t, stripped, StripComments(stripped))

	cleaned := CleanForPrompt(stripped)
	assert.Equal(t, cleaned, CleanForPrompt(cleaned))
}

func TestNormalizationIsIdempotentOnBrokenMarkup(t *testing.T) {
	inputs := []string{
		`\input{x}\\begin{comment}\end{comment}\% `,
		`a\\iffalse x\fi\% b`,
		"\\c\\begin{figure}x\\end{figure}ite{ref} text",
		`\cite\begin{table}t\end{table}{a} b`,
		"x \\\\\\% y\n  \t z",
		`\begin{comm\begin{comment}x\end{comment}ent}y\end{comment}z`,
	}

	for _, input := range inputs {
		stripped := StripComments(input)
		assert.Equal(t, stripped, StripComments(stripped), "StripComments(%q)", input)

		cleaned := CleanForPrompt(stripped)
		assert.Equal(t, cleaned, CleanForPrompt(cleaned), "CleanForPrompt(%q)", input)
	}
}

func TestSampleDocumentPipeline(t *testing.T) {
	text := CleanForPrompt(StripComments(sampleDocument))

	assert.Contains(t, text, `We improve results by 50\% over prior work.`)
	assert.Contains(t, text, "minimised with .")
	for _, gone := range []string{"preamble", "old draft", "hidden text", "plot", "sum_i", "a & b", "Proofs", `\`+"section"} {
		assert.NotContains(t, text, gone)
	}
}

func TestHasDocumentBody(t *testing.T) {
	assert.True(t, HasDocumentBody(`\begin{document}`))
	assert.False(t, HasDocumentBody(`\begin{documents}`))
}
