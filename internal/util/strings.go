// Package util provides text helpers shared by the CLI output and the TUI.
package util

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "…"

// TruncateANSI truncates a string to maxWidth visual columns, adding an
// ellipsis if truncated. ANSI escape codes and wide characters are handled,
// so styled text can be passed in.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate includes the tail in the final width calculation
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// Excerpt collapses all whitespace in s, including newlines, into single
// spaces and truncates the result to maxWidth columns. It is used for
// one-line post previews.
func Excerpt(s string, maxWidth int) string {
	return TruncateANSI(strings.Join(strings.Fields(s), " "), maxWidth)
}

// Wrap word-wraps s to width columns, breaking words that are longer than
// a line.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Hardwrap(ansi.Wordwrap(s, width, "-"), width, true)
}

// Plural returns "1 post" or "3 posts".
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}
