package posts

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/model"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [YYYY-MM]",
	Short: "Print the publishing calendar for a month",
	Long: `Print a Monday-first month grid with the number of posts planned on each
day. Defaults to the current month. Today is marked with an asterisk.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalendar,
}

// RegisterCalendarCmd registers the calendar command under the posts group.
func RegisterCalendarCmd(parent *cobra.Command) {
	parent.AddCommand(calendarCmd)
}

type calendarDay struct {
	Date  string       `json:"date" yaml:"date"`
	Today bool         `json:"today,omitempty" yaml:"today,omitempty"`
	Posts []model.Post `json:"posts" yaml:"posts"`
}

type calendarOutput struct {
	Month string        `json:"month" yaml:"month"`
	Days  []calendarDay `json:"days" yaml:"days"`
}

func runCalendar(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	month := calendar.MonthOf(now)
	if len(args) == 1 {
		if month, err = calendar.ParseMonth(args[0]); err != nil {
			return err
		}
	}

	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	sel, err := env.Tenant(ctx)
	if err != nil {
		return err
	}

	svc := calendar.NewService(sel.Client, calendar.WithLogger(env.Logger))
	defer svc.Close()
	grid, err := svc.Month(ctx, month)
	if err != nil {
		return err
	}

	if p.Structured() {
		out := calendarOutput{Month: month.String()}
		for _, c := range grid.Cells {
			if c.Blank() {
				continue
			}
			posts := c.Posts
			if posts == nil {
				posts = []model.Post{}
			}
			out.Days = append(out.Days, calendarDay{Date: c.Date.Format("2006-01-02"), Today: c.Today, Posts: posts})
		}
		return p.Print(out, nil)
	}

	return renderCalendar(p.Out, sel.Tenant.Name, grid)
}

// renderCalendar prints grid as a table of weeks.
func renderCalendar(w io.Writer, tenantName string, grid calendar.Grid) error {
	fmt.Fprintf(w, "%s · %s\n", tenantName, grid.Month.Title())

	headers := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	var rows [][]string
	for _, week := range grid.Weeks() {
		row := make([]string, calendar.DaysPerWeek)
		for i, c := range week {
			row[i] = dayLabel(c)
		}
		rows = append(rows, row)
	}
	if err := cli.Table(w, headers, rows); err != nil {
		return err
	}

	n := grid.PostCount()
	_, err := fmt.Fprintf(w, "%d post(s) planned\n", n)
	return err
}

// dayLabel renders a cell as "12", "12 (3)" or "*12" for today.
func dayLabel(c calendar.Cell) string {
	if c.Blank() {
		return ""
	}
	label := strconv.Itoa(c.Day)
	if c.Today {
		label = "*" + label
	}
	if n := len(c.Posts); n > 0 {
		label += " (" + strconv.Itoa(n) + ")"
	}
	return label
}
