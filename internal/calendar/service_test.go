package calendar

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/model"
)

type fakeLister struct {
	mu      sync.Mutex
	tenant  string
	posts   []model.Post
	err     error
	filters []model.PostFilter
}

func (f *fakeLister) TenantID() string { return f.tenant }

func (f *fakeLister) ListPosts(_ context.Context, filter model.PostFilter) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func (f *fakeLister) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filters)
}

func TestService_Month(t *testing.T) {
	lister := &fakeLister{
		tenant: "t-1",
		posts:  []model.Post{{ID: "p", PublishAt: at(time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC))}},
	}
	today := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	s := NewService(lister, WithClock(func() time.Time { return today }))

	g, err := s.Month(context.Background(), Month{2025, time.March})
	if err != nil {
		t.Fatalf("Month() error = %v", err)
	}
	if c, _ := g.Day(20); len(c.Posts) != 1 {
		t.Errorf("day 20 posts = %d, want 1", len(c.Posts))
	}
	if c, _ := g.Day(10); !c.Today {
		t.Error("day 10 should be today")
	}

	f := lister.filters[0]
	if !f.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) || !f.To.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("filter = %+v", f)
	}
}

func TestService_Error(t *testing.T) {
	lister := &fakeLister{tenant: "t-1", err: fmt.Errorf("boom")}
	s := NewService(lister)

	_, err := s.Month(context.Background(), Month{2025, time.March})
	var re *errors.OperationError
	if !errors.As(err, &re) {
		t.Errorf("Month() error = %v, want ReadError", err)
	}
}

func TestService_Cache(t *testing.T) {
	tests := []struct {
		name      string
		ttl       time.Duration
		wantCalls int
	}{
		{"cached", time.Minute, 1},
		{"disabled", 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{tenant: "t-1"}
			s := NewService(lister, WithCache(4, tt.ttl))
			m := Month{2025, time.March}
			for range 2 {
				if _, err := s.Posts(context.Background(), m); err != nil {
					t.Fatal(err)
				}
			}
			if lister.calls() != tt.wantCalls {
				t.Errorf("ListPosts calls = %d, want %d", lister.calls(), tt.wantCalls)
			}
		})
	}
}

func TestService_InvalidatedByMutations(t *testing.T) {
	bus := event.NewBus()
	lister := &fakeLister{tenant: "t-1"}
	s := NewService(lister, WithCache(4, time.Hour), WithBus(bus))
	defer s.Close()

	ctx := context.Background()
	m := Month{2025, time.March}
	load := func() {
		t.Helper()
		if _, err := s.Posts(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	load()
	bus.Publish(event.NewPostScheduledEvent("t-2", "x", time.Now()))
	load()
	if lister.calls() != 1 {
		t.Errorf("other tenant's event refetched: calls = %d", lister.calls())
	}

	bus.Publish(event.NewPostScheduledEvent("t-1", "p", time.Now()))
	load()
	if lister.calls() != 2 {
		t.Errorf("after scheduled calls = %d, want 2", lister.calls())
	}

	bus.Publish(event.NewPostRejectedEvent("t-1", "p"))
	load()
	if lister.calls() != 3 {
		t.Errorf("after rejected calls = %d, want 3", lister.calls())
	}

	s.Close()
	if n := bus.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() after Close = %d", n)
	}
}
