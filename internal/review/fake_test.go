package review

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
)

// fakePosts is an in-memory PostService. Updates may be held until the
// test releases them through gate.
type fakePosts struct {
	mu sync.Mutex

	posts      []model.Post
	suggested  time.Time
	listErr    error
	suggestErr error
	updateErr  error
	gate       chan struct{}

	updates        []recordedUpdate
	suggestedCalls int
	started        chan struct{}
}

type recordedUpdate struct {
	ID     string
	Update model.UpdatePost
}

func newFakePosts(ids ...string) *fakePosts {
	f := &fakePosts{started: make(chan struct{}, 16)}
	for _, id := range ids {
		f.posts = append(f.posts, model.Post{ID: id, Text: "text " + id, Status: model.StatusDraft})
	}
	return f
}

func (f *fakePosts) TenantID() string { return "t-1" }

func (f *fakePosts) ListPosts(_ context.Context, filter model.PostFilter) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Post
	for _, p := range f.posts {
		if filter.Status == "" || p.Status == filter.Status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePosts) GetPost(_ context.Context, id string) (model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Post{}, errors.NewAPIError(http.MethodGet, "/posts/"+id, http.StatusNotFound, "post not found")
}

func (f *fakePosts) UpdatePost(ctx context.Context, id string, u model.UpdatePost) (model.Post, error) {
	f.mu.Lock()
	f.updates = append(f.updates, recordedUpdate{ID: id, Update: u})
	gate, updateErr := f.gate, f.updateErr
	f.mu.Unlock()

	f.started <- struct{}{}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Post{}, ctx.Err()
		}
	}
	if updateErr != nil {
		return model.Post{}, updateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.posts, func(p model.Post) bool { return p.ID == id })
	if i < 0 {
		return model.Post{}, fmt.Errorf("unknown post %s", id)
	}
	p := &f.posts[i]
	if u.Text != nil {
		p.Text = *u.Text
	}
	if u.PublishAt != nil {
		at := *u.PublishAt
		p.PublishAt = &at
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	return *p, nil
}

func (f *fakePosts) SuggestedDate(context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestedCalls++
	if f.suggestErr != nil {
		return time.Time{}, f.suggestErr
	}
	return f.suggested, nil
}

func (f *fakePosts) recorded() []recordedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.updates)
}

func (f *fakePosts) suggestions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suggestedCalls
}
