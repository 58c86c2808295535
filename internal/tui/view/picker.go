package view

import (
	"strings"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/tui/styles"
)

// PickerState holds what the tenant picker renders.
type PickerState struct {
	Tenants []model.Tenant
	Cursor  int
	// Creating shows the create-tenant prompt with Input as the rendered
	// text input.
	Creating bool
	Input    string
	Busy     bool
	Spinner  string
	Err      error
}

// Picker renders the tenant picker or, when there are no tenants or the
// user asked for one, the create-tenant prompt.
func Picker(s PickerState) string {
	var b strings.Builder
	if s.Creating {
		if len(s.Tenants) == 0 {
			b.WriteString(styles.Title.Render("Create your first workspace"))
		} else {
			b.WriteString(styles.Title.Render("New workspace"))
		}
		b.WriteString("\n")
		b.WriteString(s.Input)
		b.WriteString("\n")
	} else {
		b.WriteString(styles.Title.Render("Choose a workspace"))
		b.WriteString("\n")
		for i, t := range s.Tenants {
			if i == s.Cursor {
				b.WriteString(styles.ListItemActive.Render("▸ " + t.Name))
			} else {
				b.WriteString(styles.ListItem.Render("  " + t.Name))
			}
			b.WriteString("\n")
		}
	}

	if s.Busy {
		b.WriteString(s.Spinner + " Working…\n")
	}
	if s.Err != nil {
		b.WriteString(styles.ErrorMsg.Render(errors.UserMessage(s.Err)))
		b.WriteString("\n")
	}

	if s.Creating {
		hints := []Binding{{"enter", "create"}}
		if len(s.Tenants) > 0 {
			hints = append(hints, Binding{"esc", "back"})
		}
		b.WriteString(HelpBar(hints...))
	} else {
		b.WriteString(HelpBar(Binding{"j/k", "move"}, Binding{"enter", "select"}, Binding{"n", "new"}, Binding{"q", "quit"}))
	}
	return styles.ContentBox.Render(b.String())
}
