package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders segments that share one background color. Styling each word
// separately keeps the background across the reset codes lipgloss emits
// between segments. See: https://github.com/charmbracelet/lipgloss/discussions/78
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style on the shared background, spaces included.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Field renders "label value", as in "Bundles: 3" on the status line.
func (b BgStyle) Field(label, value string, labelStyle, valueStyle lipgloss.Style) string {
	return b.Render(label, labelStyle) + b.space + b.Render(value, valueStyle)
}

// Hint renders a "key:action" pair for the command bar.
func (b BgStyle) Hint(keyName, action string, keyStyle, actionStyle lipgloss.Style) string {
	return b.Render(keyName, keyStyle) + b.Render(":", lipgloss.NewStyle()) + b.Render(action, actionStyle)
}

// Line joins status line segments with a two-space gap, skipping empty ones.
func (b BgStyle) Line(segments ...string) string {
	kept := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, b.space+b.space)
}

// Edge renders one horizontal box edge: left corner, fill repeated n times,
// right corner.
func (b BgStyle) Edge(left, fill, right string, n int, style lipgloss.Style) string {
	return b.Render(left+strings.Repeat(fill, maxInt(n, 0))+right, style)
}

// Color returns the background color.
func (b BgStyle) Color() lipgloss.Color {
	return b.bg
}
