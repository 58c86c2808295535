package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a post.
type Status string

// Post statuses. The values match the backend enum names.
const (
	StatusDraft     Status = "DRAFT"
	StatusScheduled Status = "SCHEDULED"
	StatusPublished Status = "PUBLISHED"
	StatusRejected  Status = "REJECTED"
)

// Statuses returns all known statuses in lifecycle order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusScheduled, StatusPublished, StatusRejected}
}

// ParseStatus converts a case-insensitive status name to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusScheduled, StatusPublished, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown post status %q", s)
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether a post may move from s to next.
// Transitions are forward-only: a draft is either scheduled or rejected, a
// scheduled post may be re-scheduled by the client and is published by the
// server. Published and rejected are terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusScheduled || next == StatusRejected
	case StatusScheduled:
		return next == StatusScheduled || next == StatusPublished
	default:
		return false
	}
}

// Platform is a social network a post is published to.
type Platform string

// Known platforms.
const (
	PlatformInstagram Platform = "INSTAGRAM"
)

// Post is a unit of social content.
type Post struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	PublishAt *time.Time `json:"publishAt,omitempty"`
	Status    Status     `json:"status"`
	Images    []Image    `json:"contentFiles,omitempty"`
	Platforms []Platform `json:"platforms,omitempty"`
}

// ReadOnly reports whether the post can no longer be edited.
func (p Post) ReadOnly() bool {
	return p.Status == StatusPublished
}

// PublishDate returns the wall-clock calendar date of PublishAt in the
// instant's own location, and false when the post has no publish time.
func (p Post) PublishDate() (year int, month time.Month, day int, ok bool) {
	if p.PublishAt == nil {
		return 0, 0, 0, false
	}
	y, m, d := p.PublishAt.Date()
	return y, m, d, true
}

// UpdatePost is the PATCH /posts/{id} body. Nil fields are left unchanged.
type UpdatePost struct {
	Text      *string    `json:"text,omitempty"`
	PublishAt *time.Time `json:"publishAt,omitempty"`
	Status    *Status    `json:"status,omitempty"`
}

// ScheduleUpdate builds the body that approves a post for publishing.
func ScheduleUpdate(text string, publishAt time.Time) UpdatePost {
	st := StatusScheduled
	return UpdatePost{Text: &text, PublishAt: &publishAt, Status: &st}
}

// RejectUpdate builds the body that rejects a draft.
func RejectUpdate() UpdatePost {
	st := StatusRejected
	return UpdatePost{Status: &st}
}

// PostFilter narrows GET /posts. Zero values are not sent.
type PostFilter struct {
	From   time.Time
	To     time.Time
	Status Status
}

// SuggestedDate is the backend's proposal for the next publish time.
type SuggestedDate struct {
	SuggestedDate time.Time `json:"suggestedDate"`
}
