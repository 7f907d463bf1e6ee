// Package segment splits model output into verbatim (fenced) and
// processable spans.
package segment

import (
	"iter"
	"regexp"
	"strings"
)

// Fence delimits verbatim blocks.
const Fence = "```"

// fencePattern matches the shortest text between two fences. Blocks do
// not nest: the first closing fence after an opener ends the block.
var fencePattern = regexp.MustCompile("(?s)" + regexp.QuoteMeta(Fence) + ".*?" + regexp.QuoteMeta(Fence))

// Span is a contiguous piece of the input. Start and End are byte
// offsets into the original text.
type Span struct {
	Content  string
	Verbatim bool
	Start    int
	End      int
}

// Spans yields the spans of text in order. Processable spans alternate
// with verbatim ones and are emitted even when empty, so a text with k
// fenced blocks always yields 2k+1 spans. The sequence may be iterated
// any number of times.
func Spans(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		last := 0
		for _, loc := range fencePattern.FindAllStringIndex(text, -1) {
			if !yield(Span{Content: text[last:loc[0]], Start: last, End: loc[0]}) {
				return
			}
			if !yield(Span{Content: text[loc[0]:loc[1]], Verbatim: true, Start: loc[0], End: loc[1]}) {
				return
			}
			last = loc[1]
		}
		yield(Span{Content: text[last:], Start: last, End: len(text)})
	}
}

// Split returns all spans of text.
func Split(text string) []Span {
	var out []Span
	for s := range Spans(text) {
		out = append(out, s)
	}
	return out
}

// Join concatenates span contents.
func Join(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Content)
	}
	return b.String()
}
