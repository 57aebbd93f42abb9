package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer turns markdown into terminal output.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

// NewMarkdownRenderer returns a glamour renderer. Word wrap is off: glamour
// breaks long tokens at the wrap width, which would split meme URLs. The
// terminal soft-wraps long lines instead.
func NewMarkdownRenderer() (MarkdownRenderer, error) {
	// A fixed style avoids the OSC background query glamour does for "auto".
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r, nil
}

// RenderMarkdown renders content with r, falling back to the raw text when
// r is nil or fails.
func RenderMarkdown(content string, r MarkdownRenderer) string {
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
