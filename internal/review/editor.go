package review

import (
	"context"
	"sync"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/model"
)

// EditorState is the lifecycle state of an Editor.
type EditorState int

const (
	// EditorLoading means the post has not been fetched yet.
	EditorLoading EditorState = iota
	// EditorReady means the post is loaded and may be edited.
	EditorReady
	// EditorMutating means an approve or reject is in flight.
	EditorMutating
	// EditorDone means the post was updated; the caller should return to
	// the calendar.
	EditorDone
	// EditorClosed means the editor was closed.
	EditorClosed
)

// String returns the string representation of the state.
func (s EditorState) String() string {
	switch s {
	case EditorLoading:
		return "loading"
	case EditorReady:
		return "ready"
	case EditorMutating:
		return "mutating"
	case EditorDone:
		return "done"
	case EditorClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Editor reviews a single post opened by ID. Published posts are read-only.
type Editor struct {
	posts PostService
	opts  options

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state EditorState
	post  model.Post
	form  Form
}

// NewEditor creates an Editor over posts. WithDefaultDate is ignored; the
// date comes from the post or the backend's suggestion.
func NewEditor(posts PostService, opts ...Option) *Editor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithTenant(posts.TenantID()).WithComponent("editor")

	ctx, cancel := context.WithCancel(context.Background())
	return &Editor{posts: posts, opts: o, ctx: ctx, cancel: cancel}
}

// Open loads post id. The form is pre-filled from the post's publish time,
// or from the suggested date and default time when it has none.
func (e *Editor) Open(ctx context.Context, id string) error {
	ctx, done := e.scope(ctx)
	defer done()

	p, err := e.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return errors.NewNotFoundError("post", id).WithCause(err)
		}
		return errors.NewReadError("load", "post", err)
	}

	form := Form{Text: p.Text, Time: e.opts.defaultTime}
	if p.PublishAt != nil {
		local := p.PublishAt.In(e.opts.location)
		form.Date = dateOf(local, e.opts.location)
		form.Time = local.Format(clockLayout)
	} else if !p.ReadOnly() {
		form.Date, _ = suggestDate(ctx, e.posts, e.opts.now(), e.opts.location)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EditorClosed {
		return errors.ErrClosed
	}
	e.post, e.form, e.state = p, form, EditorReady
	return nil
}

// Post returns the loaded post with the locally edited text.
func (e *Editor) Post() model.Post {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.post
	p.Text = e.form.Text
	return p
}

// Form returns the current form values.
func (e *Editor) Form() Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// State returns the lifecycle state.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ReadOnly reports whether the loaded post can no longer be edited.
func (e *Editor) ReadOnly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.post.ReadOnly()
}

// EditText replaces the post text locally.
func (e *Editor) EditText(text string) error {
	return e.edit(func(f *Form) { f.Text = text })
}

// SetDate sets the publish date.
func (e *Editor) SetDate(date time.Time) error {
	return e.edit(func(f *Form) {
		if date.IsZero() {
			f.Date = time.Time{}
			return
		}
		f.Date = calendarDate(date)
	})
}

// SetTime sets the publish time as HH:MM.
func (e *Editor) SetTime(clock string) error {
	if clock != "" {
		var err error
		if clock, err = ParseClock(clock); err != nil {
			return err
		}
	}
	return e.edit(func(f *Form) { f.Time = clock })
}

// Approve schedules the post with the edited text, date and time.
func (e *Editor) Approve(ctx context.Context) (model.Post, error) {
	e.mu.Lock()
	if err := e.beginMutation(); err != nil {
		e.mu.Unlock()
		return model.Post{}, err
	}
	p, form := e.post, e.form
	at, err := scheduleInstant(form, e.opts.now(), e.opts.location)
	if err != nil {
		e.mu.Unlock()
		return model.Post{}, err
	}
	e.state = EditorMutating
	e.mu.Unlock()

	return e.mutate(ctx, p, "approve", "schedule", model.ScheduleUpdate(form.Text, at), func() event.Event {
		return event.NewPostScheduledEvent(e.posts.TenantID(), p.ID, at)
	})
}

// Reject rejects the post.
func (e *Editor) Reject(ctx context.Context) (model.Post, error) {
	e.mu.Lock()
	if err := e.beginMutation(); err != nil {
		e.mu.Unlock()
		return model.Post{}, err
	}
	p := e.post
	e.state = EditorMutating
	e.mu.Unlock()

	return e.mutate(ctx, p, "reject", "reject", model.RejectUpdate(), func() event.Event {
		return event.NewPostRejectedEvent(e.posts.TenantID(), p.ID)
	})
}

// Close cancels in-flight requests and discards their responses.
func (e *Editor) Close() {
	e.mu.Lock()
	e.state = EditorClosed
	e.mu.Unlock()
	e.cancel()
}

func (e *Editor) mutate(ctx context.Context, p model.Post, action, op string, update model.UpdatePost, success func() event.Event) (model.Post, error) {
	ctx, done := e.scope(ctx)
	defer done()

	updated, err := e.posts.UpdatePost(ctx, p.ID, update)

	e.mu.Lock()
	if e.state == EditorClosed {
		e.mu.Unlock()
		return model.Post{}, errors.ErrClosed
	}
	if err != nil {
		e.state = EditorReady
		e.mu.Unlock()

		merr := errors.NewMutationError(op, "post", p.ID, err)
		e.opts.logger.WithPost(p.ID).Error("post update failed", "action", action, "error", err.Error())
		e.publish(event.NewPostMutationFailedEvent(e.posts.TenantID(), p.ID, action, merr))
		e.publish(event.NewNotificationEvent(event.LevelError, notificationText(action, err)))
		return model.Post{}, merr
	}
	e.post = updated
	e.state = EditorDone
	e.mu.Unlock()

	e.opts.logger.WithPost(p.ID).Info("post updated", "action", action)
	e.publish(success())
	e.publish(event.NewNotificationEvent(event.LevelSuccess, "Post updated"))
	return updated, nil
}

// beginMutation must be called with the mutex held.
func (e *Editor) beginMutation() error {
	switch e.state {
	case EditorClosed:
		return errors.ErrClosed
	case EditorMutating:
		return errors.ErrMutationPending
	case EditorLoading:
		return errors.ErrNotOpen
	case EditorDone:
		return errors.ErrAlreadyUpdated
	}
	if e.post.ReadOnly() {
		return errors.ErrReadOnly
	}
	return nil
}

func (e *Editor) edit(fn func(*Form)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.state == EditorClosed:
		return errors.ErrClosed
	case e.state == EditorDone:
		return errors.ErrAlreadyUpdated
	case e.post.ReadOnly():
		return errors.ErrReadOnly
	}
	fn(&e.form)
	return nil
}

func (e *Editor) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (e *Editor) publish(ev event.Event) {
	if e.opts.bus != nil {
		e.opts.bus.Publish(ev)
	}
}
