package calendar

import (
	"testing"
	"time"

	"github.com/somesimplify/somectl/internal/model"
)

func at(t time.Time) *time.Time { return &t }

func TestLeadingBlanks(t *testing.T) {
	tests := []struct {
		month Month
		want  int
	}{
		{Month{2025, time.September}, 0}, // Monday
		{Month{2025, time.January}, 2},   // Wednesday
		{Month{2025, time.March}, 5},     // Saturday
		{Month{2025, time.June}, 6},      // Sunday
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			if got := LeadingBlanks(tt.month); got != tt.want {
				t.Errorf("LeadingBlanks() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProject_Layout(t *testing.T) {
	m := Month{2025, time.June}
	g := Project(m, nil, time.Time{})

	if g.Leading != 6 {
		t.Fatalf("Leading = %d, want 6", g.Leading)
	}
	if len(g.Cells) != 6+30 {
		t.Fatalf("len(Cells) = %d, want 36", len(g.Cells))
	}
	for i := range 6 {
		if !g.Cells[i].Blank() {
			t.Errorf("cell %d should be blank", i)
		}
	}
	if g.Cells[6].Day != 1 || g.Cells[35].Day != 30 {
		t.Errorf("first/last day = %d/%d", g.Cells[6].Day, g.Cells[35].Day)
	}

	weeks := g.Weeks()
	if len(weeks) != 6 {
		t.Fatalf("len(Weeks()) = %d, want 6", len(weeks))
	}
	for i, w := range weeks {
		if len(w) != DaysPerWeek {
			t.Errorf("week %d has %d cells", i, len(w))
		}
	}
	if last := weeks[5]; last[0].Day != 30 || !last[1].Blank() {
		t.Errorf("last week = %+v", last)
	}
}

func TestProject_ExactWeeks(t *testing.T) {
	// February 2021 starts on a Monday and has 28 days.
	g := Project(Month{2021, time.February}, nil, time.Time{})
	if g.Leading != 0 || len(g.Weeks()) != 4 {
		t.Errorf("Leading = %d, weeks = %d", g.Leading, len(g.Weeks()))
	}
}

func TestProject_Bucketing(t *testing.T) {
	minus5 := time.FixedZone("UTC-5", -5*3600)
	plus9 := time.FixedZone("UTC+9", 9*3600)

	posts := []model.Post{
		{ID: "late", PublishAt: at(time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC))},
		{ID: "early", PublishAt: at(time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC))},
		// 04:30 UTC on the 16th, but the wall clock says the 15th.
		{ID: "west", PublishAt: at(time.Date(2025, 3, 15, 23, 30, 0, 0, minus5))},
		// 15:30 UTC on the 31st, but the wall clock says the 1st of April.
		{ID: "east", PublishAt: at(time.Date(2025, 4, 1, 0, 30, 0, 0, plus9))},
		{ID: "draft"},
		{ID: "other-month", PublishAt: at(time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC))},
	}

	g := Project(Month{2025, time.March}, posts, time.Time{})

	c15, _ := g.Day(15)
	var ids []string
	for _, p := range c15.Posts {
		ids = append(ids, p.ID)
	}
	if len(ids) != 3 || ids[0] != "early" || ids[1] != "late" || ids[2] != "west" {
		t.Errorf("day 15 posts = %v, want [early late west]", ids)
	}
	if c16, _ := g.Day(16); len(c16.Posts) != 0 {
		t.Errorf("day 16 has %d posts, want 0", len(c16.Posts))
	}
	if c31, _ := g.Day(31); len(c31.Posts) != 0 {
		t.Errorf("day 31 has %d posts, want 0", len(c31.Posts))
	}
	if g.PostCount() != 3 {
		t.Errorf("PostCount() = %d, want 3", g.PostCount())
	}
}

func TestProject_Today(t *testing.T) {
	today := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)

	g := Project(Month{2025, time.March}, nil, today)
	var marked []int
	for _, c := range g.Cells {
		if c.Today {
			marked = append(marked, c.Day)
		}
	}
	if len(marked) != 1 || marked[0] != 10 {
		t.Errorf("today cells = %v, want [10]", marked)
	}

	other := Project(Month{2025, time.April}, nil, today)
	for _, c := range other.Cells {
		if c.Today {
			t.Errorf("day %d marked today in another month", c.Day)
		}
	}
}

func TestGrid_Click(t *testing.T) {
	posts := []model.Post{{ID: "p", PublishAt: at(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))}}
	g := Project(Month{2025, time.March}, posts, time.Time{})

	tests := []struct {
		name string
		day  int
		want Action
	}{
		{"empty day opens review", 6, Action{Kind: ActionOpenReview, Date: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)}},
		{"day with posts", 5, Action{Kind: ActionNone}},
		{"out of range", 32, Action{Kind: ActionNone}},
		{"zero", 0, Action{Kind: ActionNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Click(tt.day)
			if got.Kind != tt.want.Kind || !got.Date.Equal(tt.want.Date) {
				t.Errorf("Click(%d) = %+v, want %+v", tt.day, got, tt.want)
			}
		})
	}
}

func TestMonth_Navigation(t *testing.T) {
	dec := Month{2024, time.December}
	if got := dec.Next(); got != (Month{2025, time.January}) {
		t.Errorf("Next() = %v", got)
	}
	if got := (Month{2025, time.January}).Prev(); got != dec {
		t.Errorf("Prev() = %v", got)
	}

	from, to := Month{2024, time.February}.Range()
	if !from.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Range() = %v, %v", from, to)
	}
	if got := (Month{2025, time.March}).Title(); got != "March 2025" {
		t.Errorf("Title() = %q", got)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-07")
	if err != nil || m != (Month{2025, time.July}) {
		t.Errorf("ParseMonth() = %v, %v", m, err)
	}
	if _, err := ParseMonth("July"); err == nil {
		t.Error("ParseMonth(July) should fail")
	}
}
