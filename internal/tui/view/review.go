package view

import (
	"fmt"
	"strings"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/review"
	"github.com/somesimplify/somectl/internal/tui/styles"
	"github.com/somesimplify/somectl/internal/util"
)

// Field identifies the review form field being edited.
type Field int

const (
	FieldNone Field = iota
	FieldText
	FieldDate
	FieldTime
)

// ReviewState holds what the review queue renders.
type ReviewState struct {
	Snapshot review.Snapshot
	Editing  Field
	// Editor is the rendered textarea or text input for Editing.
	Editor  string
	Width   int
	Spinner string
	Err     error
}

// Review renders the batch review queue.
func Review(s ReviewState) string {
	snap := s.Snapshot
	switch snap.State {
	case review.StateLoading:
		if s.Err == nil {
			return Loading(s.Spinner, "Loading drafts…")
		}
		var b strings.Builder
		b.WriteString(styles.ErrorMsg.Render("Could not load drafts: " + errors.UserMessage(s.Err)))
		b.WriteString("\n")
		b.WriteString(HelpBar(Binding{"r", "retry"}, Binding{"esc", "back"}))
		return styles.ContentBox.Render(b.String())
	case review.StateEmpty:
		var b strings.Builder
		b.WriteString(styles.Title.Render("All caught up"))
		b.WriteString("\nThere are no drafts waiting for review.\n")
		b.WriteString(HelpBar(Binding{"esc", "back to calendar"}))
		return styles.ContentBox.Render(b.String())
	}

	var b strings.Builder
	b.WriteString(styles.Header.Render(fmt.Sprintf("Review drafts · %d of %d", snap.Cursor+1, snap.Len)))
	b.WriteString("\n")

	width := max(s.Width-8, 20)
	if snap.Current != nil {
		text := snap.Current.Text
		if s.Editing == FieldText {
			b.WriteString(s.Editor)
		} else {
			b.WriteString(util.Wrap(text, width))
		}
		b.WriteString("\n\n")
		if n := len(snap.Current.Images); n > 0 {
			b.WriteString(styles.Muted.Render(util.Plural(n, "image", "images")))
			b.WriteString("\n")
		}
	}

	b.WriteString(field("Date", s.Editing == FieldDate, dateValue(s), s.Editor))
	b.WriteString(field("Time", s.Editing == FieldTime, snap.Form.Time, s.Editor))

	if snap.State == review.StateMutating {
		b.WriteString(s.Spinner + " Saving…\n")
	}
	if s.Err != nil {
		b.WriteString(styles.ErrorMsg.Render(errors.UserMessage(s.Err)))
		b.WriteString("\n")
	}

	if s.Editing != FieldNone {
		save := "enter"
		if s.Editing == FieldText {
			save = "ctrl+s"
		}
		b.WriteString(HelpBar(Binding{save, "save"}, Binding{"esc", "cancel"}))
	} else {
		b.WriteString(HelpBar(
			Binding{"←/→", "prev/next"},
			Binding{"e", "edit text"},
			Binding{"d", "date"},
			Binding{"t", "time"},
			Binding{"a", "approve"},
			Binding{"x", "reject"},
			Binding{"esc", "back"},
		))
	}
	return styles.ContentBox.Render(b.String())
}

func dateValue(s ReviewState) string {
	v := s.Snapshot.Form.DateString()
	if v == "" {
		return styles.Muted.Render("not set")
	}
	if s.Snapshot.Seeded {
		v += styles.Muted.Render(" (from calendar)")
	} else if s.Snapshot.Suggested {
		v += styles.Muted.Render(" (suggested)")
	}
	return v
}

func field(label string, active bool, value, editor string) string {
	if active {
		return styles.FieldLabelActive.Render(label) + editor + "\n"
	}
	return styles.FieldLabel.Render(label) + value + "\n"
}
