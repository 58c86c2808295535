package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats returns the accepted output formats.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML}
}

// Printer writes command results in the selected format.
type Printer struct {
	Format string
	Out    io.Writer
}

// NewPrinter returns a Printer for cmd's --output flag and output stream.
func NewPrinter(cmd *cobra.Command) (*Printer, error) {
	format := FormatTable
	if f := cmd.Flags().Lookup(FlagOutput); f != nil {
		format = strings.ToLower(strings.TrimSpace(f.Value.String()))
	}
	if !slices.Contains(Formats(), format) {
		return nil, fmt.Errorf("invalid output format %q; valid formats: %s", format, strings.Join(Formats(), ", "))
	}
	return &Printer{Format: format, Out: cmd.OutOrStdout()}, nil
}

// Structured reports whether the printer emits JSON or YAML.
func (p *Printer) Structured() bool {
	return p.Format != FormatTable
}

// Print writes v as JSON or YAML. In table format, render is called
// instead; a nil render falls back to YAML.
func (p *Printer) Print(v any, render func(w io.Writer) error) error {
	switch {
	case p.Format == FormatJSON:
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case p.Format == FormatYAML, render == nil:
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return render(p.Out)
	}
}

// Table renders rows under headers.
func Table(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or fallback when w is not a
// terminal.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return fallback
}
