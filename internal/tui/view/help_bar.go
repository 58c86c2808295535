package view

import (
	"strings"

	"github.com/somesimplify/somectl/internal/tui/styles"
)

// Binding is one key hint in the help bar.
type Binding struct {
	Key  string
	Desc string
}

// HelpBar renders key hints on one line.
func HelpBar(bindings ...Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, styles.HelpKey.Render(b.Key)+" "+b.Desc)
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}
