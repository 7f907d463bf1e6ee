package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// replyRenderer renders model replies as markdown on a terminal and passes
// them through unchanged otherwise.
type replyRenderer struct {
	md *glamour.TermRenderer
}

func newReplyRenderer(out io.Writer) *replyRenderer {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return &replyRenderer{}
	}

	termWidth := 80
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		termWidth = min(width-4, 120)
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(termWidth),
		glamour.WithEmoji(),
	)
	if err != nil {
		return &replyRenderer{}
	}
	return &replyRenderer{md: md}
}

func (r *replyRenderer) Render(content string) string {
	if r == nil || r.md == nil || content == "" {
		return content
	}
	rendered, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
