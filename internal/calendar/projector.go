// Package calendar lays posts out on a Monday-first month grid.
//
// [Project] is a pure function from a month and a post collection to a
// [Grid]. Posts are placed by the calendar date of their publish time in
// the time's own location; no time zone conversion is applied. [Service]
// fetches and caches the posts for a month.
package calendar

import (
	"fmt"
	"slices"
	"time"

	"github.com/somesimplify/somectl/internal/model"
)

// DaysPerWeek is the number of grid columns.
const DaysPerWeek = 7

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("month must be YYYY-MM: %q", s)
	}
	return MonthOf(t), nil
}

// String returns the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Title returns the month as e.g. "March 2025".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.first().AddDate(0, 1, 0))
}

// Prev returns the preceding month.
func (m Month) Prev() Month {
	return MonthOf(m.first().AddDate(0, -1, 0))
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return m.first().AddDate(0, 1, -1).Day()
}

// Range returns the first and last day of the month, for fetching.
func (m Month) Range() (from, to time.Time) {
	first := m.first()
	return first, first.AddDate(0, 1, -1)
}

// Date returns day d of the month at midnight UTC.
func (m Month) Date(d int) time.Time {
	return time.Date(m.Year, m.Month, d, 0, 0, 0, 0, time.UTC)
}

func (m Month) first() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LeadingBlanks returns the number of empty cells before day 1 in a
// Monday-first week: Monday is column 0 and Sunday column 6.
func LeadingBlanks(m Month) int {
	return (int(m.first().Weekday()) + 6) % DaysPerWeek
}

// Cell is one square of the grid. Day is zero for padding cells.
type Cell struct {
	Day   int
	Date  time.Time
	Posts []model.Post
	Today bool
}

// Blank reports whether the cell is padding.
func (c Cell) Blank() bool {
	return c.Day == 0
}

// Grid is a month laid out Monday-first. Cells holds Leading blanks
// followed by one cell per day.
type Grid struct {
	Month   Month
	Leading int
	Cells   []Cell
}

// Project builds the grid for m. A post lands on the day its PublishAt
// falls on as a wall-clock date; posts without PublishAt or outside m are
// left out. Posts within a day are ordered by publish time. today marks the
// cell with the same calendar date.
func Project(m Month, posts []model.Post, today time.Time) Grid {
	days := m.Days()
	g := Grid{
		Month:   m,
		Leading: LeadingBlanks(m),
		Cells:   make([]Cell, 0, LeadingBlanks(m)+days),
	}
	for range g.Leading {
		g.Cells = append(g.Cells, Cell{})
	}

	ty, tm, td := today.Date()
	for d := 1; d <= days; d++ {
		g.Cells = append(g.Cells, Cell{
			Day:   d,
			Date:  m.Date(d),
			Today: !today.IsZero() && ty == m.Year && tm == m.Month && td == d,
		})
	}

	for _, p := range posts {
		y, mo, d, ok := p.PublishDate()
		if !ok || y != m.Year || mo != m.Month {
			continue
		}
		c := &g.Cells[g.Leading+d-1]
		c.Posts = append(c.Posts, p)
	}
	for i := range g.Cells {
		slices.SortStableFunc(g.Cells[i].Posts, func(a, b model.Post) int {
			return a.PublishAt.Compare(*b.PublishAt)
		})
	}
	return g
}

// Weeks splits the grid into rows of seven, padding the last row with
// blank cells.
func (g Grid) Weeks() [][]Cell {
	var weeks [][]Cell
	for i := 0; i < len(g.Cells); i += DaysPerWeek {
		row := make([]Cell, DaysPerWeek)
		copy(row, g.Cells[i:min(i+DaysPerWeek, len(g.Cells))])
		weeks = append(weeks, row)
	}
	return weeks
}

// Day returns the cell for day d.
func (g Grid) Day(d int) (Cell, bool) {
	i := g.Leading + d - 1
	if d < 1 || i >= len(g.Cells) {
		return Cell{}, false
	}
	return g.Cells[i], true
}

// PostCount returns the number of posts placed on the grid.
func (g Grid) PostCount() int {
	n := 0
	for _, c := range g.Cells {
		n += len(c.Posts)
	}
	return n
}

// ActionKind is what clicking a day leads to.
type ActionKind int

const (
	// ActionNone means the click does nothing.
	ActionNone ActionKind = iota
	// ActionOpenReview opens the review queue seeded with Action.Date.
	ActionOpenReview
)

// Action is the outcome of clicking a day.
type Action struct {
	Kind ActionKind
	Date time.Time
}

// Click returns the action for clicking day d: an empty day opens review
// seeded with that date, a day with posts does nothing.
func (g Grid) Click(d int) Action {
	c, ok := g.Day(d)
	if !ok || len(c.Posts) > 0 {
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionOpenReview, Date: c.Date}
}
