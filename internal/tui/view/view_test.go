package view

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/somesimplify/somectl/internal/calendar"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/identity"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/review"
)

func plain(s string) string { return ansi.Strip(s) }

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output does not contain %q:\n%s", w, out)
		}
	}
}

func assertNotContains(t *testing.T, out string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(out, w) {
			t.Errorf("output contains %q:\n%s", w, out)
		}
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name  string
		state identity.State
		want  []string
	}{
		{
			name:  "pending",
			state: identity.State{Status: identity.StatusPending},
			want:  []string{"Checking your session"},
		},
		{
			name:  "needs registration",
			state: identity.State{Status: identity.StatusNeedsRegistration, RegistrationURL: "https://app.example.com/register"},
			want:  []string{"No account yet", "https://app.example.com/register", "quit"},
		},
		{
			name:  "expired token",
			state: identity.State{Status: identity.StatusFailed, Err: errors.NewAuthError("token expired", errors.ErrTokenExpired)},
			want:  []string{"Could not sign in", "auth.token"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, plain(Gate(tt.state, "*")), tt.want...)
		})
	}

	if got := Gate(identity.State{Status: identity.StatusResolved}, "*"); got != "" {
		t.Errorf("Gate(resolved) = %q, want empty", got)
	}
}

func TestPicker(t *testing.T) {
	tenants := []model.Tenant{{ID: "a", Name: "Bakeri"}, {ID: "b", Name: "Pub"}}

	list := plain(Picker(PickerState{Tenants: tenants, Cursor: 1}))
	assertContains(t, list, "Choose a workspace", "Bakeri", "▸ Pub", "new")

	first := plain(Picker(PickerState{Creating: true, Input: "> name"}))
	assertContains(t, first, "Create your first workspace", "> name", "create")
	assertNotContains(t, first, "esc")

	another := plain(Picker(PickerState{Tenants: tenants, Creating: true}))
	assertContains(t, another, "New workspace", "esc")

	failed := plain(Picker(PickerState{Tenants: tenants, Err: errors.NewValidationError("name is required")}))
	assertContains(t, failed, "name is required")
}

func TestCalendar(t *testing.T) {
	at := func(d, h int) *time.Time {
		v := time.Date(2025, 6, d, h, 0, 0, 0, time.UTC)
		return &v
	}
	posts := []model.Post{
		{ID: "1", Text: "Morning bake", Status: model.StatusScheduled, PublishAt: at(12, 8)},
		{ID: "2", Text: "Lunch menu", Status: model.StatusScheduled, PublishAt: at(12, 11)},
		{ID: "3", Text: "Evening", Status: model.StatusPublished, PublishAt: at(12, 18)},
	}
	m := calendar.Month{Year: 2025, Month: time.June}
	g := calendar.Project(m, posts, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC))

	out := plain(Calendar(CalendarState{Tenant: "Bakeri", Grid: g, Selected: 12, Width: 140, WeekNumbers: true}))
	assertContains(t, out, "Bakeri · June 2025", "Mon", "Sun", "3 today", "08:00", "+1 more", "30", "W22", "review drafts")
	assertNotContains(t, out, "Evening")

	lines := strings.Split(Calendar(CalendarState{Grid: g, Width: 84}), "\n")
	for _, l := range lines {
		if w := lipgloss.Width(l); w > 84 {
			t.Errorf("line is %d wide, want <= 84: %q", w, plain(l))
		}
	}
}

func TestCalendar_LoadingAndError(t *testing.T) {
	g := calendar.Project(calendar.Month{Year: 2025, Month: time.March}, nil, time.Time{})
	out := plain(Calendar(CalendarState{Grid: g, Width: 100, Loading: true, Spinner: "*", Err: fmt.Errorf("backend down")}))
	assertContains(t, out, "* Loading posts", "backend down")
}

func TestReview(t *testing.T) {
	post := model.Post{ID: "p", Text: "Fresh bread today", Images: []model.Image{{ID: "i"}}}
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	idle := review.Snapshot{
		State:     review.StateIdle,
		Cursor:    0,
		Len:       2,
		Current:   &post,
		Form:      review.Form{Text: post.Text, Date: date, Time: "12:00"},
		Suggested: true,
	}

	tests := []struct {
		name   string
		state  ReviewState
		want   []string
		reject []string
	}{
		{
			name:  "loading",
			state: ReviewState{Snapshot: review.Snapshot{State: review.StateLoading}, Spinner: "*"},
			want:  []string{"* Loading drafts"},
		},
		{
			name: "load failed",
			state: ReviewState{
				Snapshot: review.Snapshot{State: review.StateLoading},
				Spinner:  "*",
				Err:      fmt.Errorf("backend down"),
			},
			want:   []string{"Could not load drafts: backend down", "retry"},
			reject: []string{"Loading drafts"},
		},
		{
			name:  "empty",
			state: ReviewState{Snapshot: review.Snapshot{State: review.StateEmpty}},
			want:  []string{"All caught up", "back to calendar"},
		},
		{
			name:   "idle",
			state:  ReviewState{Snapshot: idle, Width: 80},
			want:   []string{"1 of 2", "Fresh bread today", "1 image", "2025-03-14 (suggested)", "12:00", "approve", "reject"},
			reject: []string{"Saving"},
		},
		{
			name:  "editing time",
			state: ReviewState{Snapshot: idle, Editing: FieldTime, Editor: "> 13:3", Width: 80},
			want:  []string{"> 13:3", "enter save", "esc cancel"},
		},
		{
			name: "mutating with error",
			state: ReviewState{
				Snapshot: func() review.Snapshot { s := idle; s.State = review.StateMutating; return s }(),
				Spinner:  "*",
				Err:      errors.NewValidationError("cannot schedule in the past"),
			},
			want: []string{"* Saving", "cannot schedule in the past"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := plain(Review(tt.state))
			assertContains(t, out, tt.want...)
			assertNotContains(t, out, tt.reject...)
		})
	}
}

func TestNotifications(t *testing.T) {
	if Notifications(nil) != "" {
		t.Error("Notifications(nil) should be empty")
	}
	out := plain(Notifications([]Notification{
		{ID: 1, Level: event.LevelSuccess, Message: "Post updated"},
		{ID: 2, Level: event.LevelError, Message: "Could not approve post"},
	}))
	assertContains(t, out, "✓ Post updated", "✗ Could not approve post")
	if strings.Index(out, "Post updated") > strings.Index(out, "Could not") {
		t.Error("notifications out of order")
	}
}
