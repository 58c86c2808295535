package review

import (
	"context"
	"strings"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
)

const (
	// DefaultTime is the publish time pre-filled for every post.
	DefaultTime = "12:00"

	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// PostService is the tenant-scoped post API used by the review flows.
// *api.TenantClient implements it.
type PostService interface {
	TenantID() string
	ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error)
	GetPost(ctx context.Context, id string) (model.Post, error)
	UpdatePost(ctx context.Context, id string, update model.UpdatePost) (model.Post, error)
	SuggestedDate(ctx context.Context) (time.Time, error)
}

// Form holds the schedule inputs for the post being reviewed. Date is a
// calendar date (only year, month and day are used); the zero value means
// no date has been chosen.
type Form struct {
	Text string
	Date time.Time
	Time string
}

// HasDate reports whether a date has been chosen.
func (f Form) HasDate() bool {
	return !f.Date.IsZero()
}

// DateString returns the date as YYYY-MM-DD, or "" when unset.
func (f Form) DateString() string {
	if !f.HasDate() {
		return ""
	}
	return f.Date.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.NewValidationError("date must be YYYY-MM-DD").WithField("date").WithValue(s)
	}
	return d, nil
}

// ParseClock parses an HH:MM wall-clock time and returns it normalised.
func ParseClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", errors.NewValidationError("time must be HH:MM").WithField("time").WithValue(s)
	}
	return t.Format(clockLayout), nil
}

// scheduleInstant combines the form's date and time in loc and checks it is
// not in the past. "Now" is truncated to the minute, so a time equal to the
// current minute is accepted.
func scheduleInstant(f Form, now time.Time, loc *time.Location) (time.Time, error) {
	if !f.HasDate() {
		return time.Time{}, errors.NewValidationError("choose a publish date").WithField("date")
	}
	if strings.TrimSpace(f.Time) == "" {
		return time.Time{}, errors.NewValidationError("choose a publish time").WithField("time")
	}
	clock, err := time.Parse(clockLayout, strings.TrimSpace(f.Time))
	if err != nil {
		return time.Time{}, errors.NewValidationError("time must be HH:MM").WithField("time").WithValue(f.Time)
	}

	y, m, d := f.Date.Date()
	at := time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc)
	if at.Before(now.In(loc).Truncate(time.Minute)) {
		return time.Time{}, errors.NewValidationError("cannot schedule a post in the past").
			WithField("publishAt").
			WithValue(at.Format(time.RFC3339)).
			WithCause(errors.ErrPastSchedule)
	}
	return at, nil
}

// calendarDate keeps the year, month and day of t as written, dropping its
// clock and zone.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateOf returns the calendar date of t in loc as midnight UTC.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// suggestDate asks the backend for the next publish date and falls back to
// tomorrow when it cannot answer.
func suggestDate(ctx context.Context, posts PostService, now time.Time, loc *time.Location) (time.Time, bool) {
	s, err := posts.SuggestedDate(ctx)
	if err != nil || s.IsZero() {
		return dateOf(now.AddDate(0, 0, 1), loc), false
	}
	return dateOf(s, loc), true
}
