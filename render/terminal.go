package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Styles accepted by Terminal.
var Styles = []string{"auto", "dark", "light", "notty", "ascii"}

// Terminal renders markdown to ANSI text wrapped at width using a glamour
// style ("auto", "dark", "light", "notty", "ascii"). Empty style means auto.
func Terminal(md string, width int, style string) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("word wrap width must be positive, got %d", width)
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStylePath(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

var pillStyle = lipgloss.NewStyle().
	Padding(0, 1).
	MarginRight(1).
	Bold(true).
	Foreground(lipgloss.Color("#FFFDF5")).
	Background(lipgloss.Color("#7D56F4"))

// Pills renders status labels as a single line of badges.
func Pills(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	pills := make([]string, len(labels))
	for i, l := range labels {
		pills[i] = pillStyle.Render(strings.TrimSpace(l))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, pills...)
}
