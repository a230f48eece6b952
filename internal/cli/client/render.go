package client

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const defaultWrapWidth = 80

// renderMarkdown renders assistant text for the terminal. Replies are
// markdown-ish (lists, bold); on any renderer error the raw text is used.
func renderMarkdown(text string, width int) string {
	if width <= 0 {
		width = defaultWrapWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
