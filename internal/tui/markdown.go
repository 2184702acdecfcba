package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Cache renderers by wrap width. Creating a renderer with WithAutoStyle can
// trigger terminal capability queries that may block on some terminals, so a
// fixed style is used and renderers are reused.
var mdRenderers = map[string]*glamour.TermRenderer{}

// renderMarkdown renders a markdown body for the detail view, falling back to
// the raw text when rendering fails.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	key := "dark:" + strconv.Itoa(width)
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
