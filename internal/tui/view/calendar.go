package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/tui/styles"
	"github.com/somesimplify/somectl/internal/util"
)

// Weekdays are the column headers, Monday first.
var Weekdays = [calendar.DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// postsPerCell is how many post previews fit in one day cell.
const postsPerCell = 2

// CalendarState holds what the month view renders.
type CalendarState struct {
	Tenant      string
	Grid        calendar.Grid
	Selected    int
	Width       int
	WeekNumbers bool
	Loading     bool
	Spinner     string
	Err         error
}

// CellWidth returns the inner width of a day cell for a terminal width.
func CellWidth(width int) int {
	// Each cell has a border and one column of padding on both sides.
	return max(width/calendar.DaysPerWeek-4, 5)
}

// Calendar renders the month grid.
func Calendar(s CalendarState) string {
	var b strings.Builder
	title := s.Grid.Month.Title()
	if s.Tenant != "" {
		title = s.Tenant + " · " + title
	}
	b.WriteString(styles.Header.Render(title))
	b.WriteString("\n")

	if s.Loading {
		b.WriteString(s.Spinner + " Loading posts…\n")
	}
	if s.Err != nil {
		b.WriteString(styles.ErrorMsg.Render(errors.UserMessage(s.Err)))
		b.WriteString("\n")
	}

	inner := CellWidth(s.Width)
	gutter := ""
	if s.WeekNumbers {
		gutter = strings.Repeat(" ", 4)
	}

	headers := make([]string, calendar.DaysPerWeek)
	for i, d := range Weekdays {
		headers[i] = styles.DayHeader.Width(inner + 4).Render(d)
	}
	b.WriteString(gutter + lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	b.WriteString("\n")

	for _, week := range s.Grid.Weeks() {
		cells := make([]string, len(week))
		for i, c := range week {
			cells[i] = renderCell(c, s.Selected, inner)
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if s.WeekNumbers {
			row = lipgloss.JoinHorizontal(lipgloss.Top, weekLabel(week), row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString(HelpBar(
		Binding{"←↑↓→", "day"},
		Binding{"h/l", "month"},
		Binding{"enter", "plan day"},
		Binding{"r", "review drafts"},
		Binding{"T", "switch workspace"},
		Binding{"q", "quit"},
	))
	return b.String()
}

func renderCell(c calendar.Cell, selected, inner int) string {
	lines := make([]string, 0, postsPerCell+2)
	if c.Blank() {
		for range postsPerCell + 2 {
			lines = append(lines, "")
		}
		return styles.DayCellBlank.Width(inner + 2).Render(strings.Join(lines, "\n"))
	}

	day := strconv.Itoa(c.Day)
	if c.Today {
		day = styles.Secondary.Render(day + " today")
	}
	lines = append(lines, util.TruncateANSI(day, inner))

	for i, p := range c.Posts {
		if i == postsPerCell {
			lines = append(lines, styles.Muted.Render(fmt.Sprintf("+%d more", len(c.Posts)-postsPerCell)))
			break
		}
		icon := lipgloss.NewStyle().Foreground(styles.StatusColor(p.Status)).Render(styles.StatusIcon(p.Status))
		preview := p.PublishAt.Format("15:04") + " " + p.Text
		lines = append(lines, icon+" "+util.Excerpt(preview, inner-2))
	}
	for len(lines) < postsPerCell+2 {
		lines = append(lines, "")
	}

	style := styles.DayCell
	switch {
	case c.Day == selected:
		style = styles.DayCellSelected
	case c.Today:
		style = styles.DayCellToday
	}
	return style.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// weekLabel renders the ISO week number of the row's first day.
func weekLabel(week []calendar.Cell) string {
	for _, c := range week {
		if !c.Blank() {
			_, w := c.Date.ISOWeek()
			return styles.Muted.Width(4).Render(fmt.Sprintf("\nW%02d", w))
		}
	}
	return strings.Repeat(" ", 4)
}
