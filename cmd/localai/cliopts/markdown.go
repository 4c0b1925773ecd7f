package cliopts

import (
	"io"

	"github.com/charmbracelet/glamour"
)

const markdownWidth = 100

// RenderMarkdown formats text for w. Terminals get the auto-detected style;
// anything else gets plain "notty" output.
func RenderMarkdown(w io.Writer, text string) (string, error) {
	style := "notty"
	if IsTerminal(w) {
		style = "auto"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
