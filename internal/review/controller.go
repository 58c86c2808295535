// Package review drives post approval.
//
// A [Controller] walks the tenant's draft posts one at a time: the user may
// edit the text, pick a publish date and time, and approve (schedule) or
// reject the post under the cursor. An [Editor] does the same for a single
// post opened by ID.
//
// Both run at most one approve or reject at a time and stop applying
// responses once closed.
package review

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
)

// State is the controller's lifecycle state.
type State int

const (
	// StateLoading means the queue has not been fetched yet.
	StateLoading State = iota
	// StateIdle means the queue has items and no request is in flight.
	StateIdle
	// StateMutating means an approve or reject is in flight.
	StateMutating
	// StateEmpty means there are no drafts left.
	StateEmpty
	// StateClosed means the controller was closed.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateIdle:
		return "idle"
	case StateMutating:
		return "mutating"
	case StateEmpty:
		return "empty"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Option configures a Controller or Editor.
type Option func(*options)

type options struct {
	now         func() time.Time
	location    *time.Location
	defaultDate time.Time
	defaultTime string
	logger      *logging.Logger
	bus         *event.Bus
}

func defaultOptions() options {
	return options{
		now:         time.Now,
		location:    time.Local,
		defaultTime: DefaultTime,
		logger:      logging.NopLogger(),
	}
}

// WithClock sets the time source used for the "not in the past" rule.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocation sets the time zone publish dates and times are entered in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithDefaultDate seeds the publish date instead of asking the backend for
// a suggestion. Used when review is opened from an empty calendar day. Only
// the date's year, month and day are kept.
func WithDefaultDate(date time.Time) Option {
	return func(o *options) {
		o.defaultDate = date
	}
}

// WithDefaultTime sets the publish time pre-filled for every post.
func WithDefaultTime(clock string) Option {
	return func(o *options) {
		if c, err := ParseClock(clock); err == nil {
			o.defaultTime = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBus publishes post and notification events to bus.
func WithBus(bus *event.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// Snapshot is a consistent view of the controller for rendering.
type Snapshot struct {
	State  State
	Cursor int
	Len    int
	// Current is the post under the cursor with the locally edited text.
	// It is nil unless the queue has items.
	Current *model.Post
	Form    Form
	// Seeded is true when the date came from WithDefaultDate.
	Seeded bool
	// Suggested is true when the date came from the backend's suggestion.
	Suggested bool
}

// Controller is the batch review queue. It is safe for concurrent use.
type Controller struct {
	posts PostService
	opts  options

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	queue     []model.Post
	texts     map[string]string // local edits keyed by post ID
	cursor    int
	date      time.Time
	clock     string
	seeded    bool
	suggested bool
}

// NewController creates a Controller over posts.
func NewController(posts PostService, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithTenant(posts.TenantID()).WithComponent("review")

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		posts:  posts,
		opts:   o,
		ctx:    ctx,
		cancel: cancel,
		state:  StateLoading,
		texts:  make(map[string]string),
		clock:  o.defaultTime,
	}
}

// Load fetches the tenant's drafts and resets the cursor. On failure the
// controller keeps its previous queue and state and a retryable read error is
// returned.
func (c *Controller) Load(ctx context.Context) error {
	ctx, done := c.scope(ctx)
	defer done()

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return errors.ErrClosed
	}
	if c.state == StateMutating {
		c.mu.Unlock()
		return errors.ErrMutationPending
	}
	c.mu.Unlock()

	drafts, err := c.posts.ListPosts(ctx, model.PostFilter{Status: model.StatusDraft})
	if err != nil {
		if c.closed() {
			return errors.ErrClosed
		}
		c.opts.logger.Error("failed to load drafts", "error", err.Error())
		return errors.NewReadError("load", "drafts", err)
	}

	var date time.Time
	var seeded, suggested bool
	if !c.opts.defaultDate.IsZero() {
		date, seeded = calendarDate(c.opts.defaultDate), true
	} else if len(drafts) > 0 {
		date, suggested = suggestDate(ctx, c.posts, c.opts.now(), c.opts.location)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return errors.ErrClosed
	}
	c.queue = drafts
	c.texts = make(map[string]string)
	c.cursor = 0
	c.date, c.seeded, c.suggested = date, seeded, suggested
	c.clock = c.opts.defaultTime
	c.state = c.idleOrEmpty()

	c.opts.logger.Info("drafts loaded", "count", len(drafts))
	return nil
}

// Snapshot returns the current view of the queue.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state,
		Cursor:    c.cursor,
		Len:       len(c.queue),
		Form:      Form{Date: c.date, Time: c.clock},
		Seeded:    c.seeded,
		Suggested: c.suggested,
	}
	if p, ok := c.current(); ok {
		p.Text = c.textOf(p)
		s.Current = &p
		s.Form.Text = p.Text
	}
	return s
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Navigate moves the cursor by delta, clamped to the queue. It never
// touches the network.
func (c *Controller) Navigate(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return
	}
	c.cursor = clamp(c.cursor+delta, 0, len(c.queue)-1)
}

// EditText replaces the text of the post under the cursor locally. The edit
// is sent only on approve.
func (c *Controller) EditText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.current()
	if !ok {
		return errors.ErrEmptyQueue
	}
	c.texts[p.ID] = text
	return nil
}

// SetDate sets the publish date. A zero date clears it.
func (c *Controller) SetDate(date time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if date.IsZero() {
		c.date = time.Time{}
	} else {
		c.date = calendarDate(date)
	}
	c.seeded, c.suggested = false, false
}

// SetTime sets the publish time as HH:MM. An empty string clears it.
func (c *Controller) SetTime(clock string) error {
	if clock == "" {
		c.mu.Lock()
		c.clock = ""
		c.mu.Unlock()
		return nil
	}
	normalized, err := ParseClock(clock)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.clock = normalized
	c.mu.Unlock()
	return nil
}

// Approve schedules the post under the cursor with the edited text and the
// chosen date and time. Nothing is sent if the date or time is missing or in
// the past. On success the post leaves the queue and a fresh suggested date
// is fetched for the next one.
func (c *Controller) Approve(ctx context.Context) (model.Post, error) {
	c.mu.Lock()
	p, err := c.beginMutation()
	if err != nil {
		c.mu.Unlock()
		return model.Post{}, err
	}
	text := c.textOf(p)
	at, err := scheduleInstant(Form{Text: text, Date: c.date, Time: c.clock}, c.opts.now(), c.opts.location)
	if err != nil {
		c.mu.Unlock()
		return model.Post{}, err
	}
	c.state = StateMutating
	c.mu.Unlock()

	ctx, done := c.scope(ctx)
	defer done()

	updated, err := c.posts.UpdatePost(ctx, p.ID, model.ScheduleUpdate(text, at))
	if err != nil {
		return model.Post{}, c.failMutation(p, "approve", "schedule", err)
	}

	remaining := c.finishMutation(p.ID, false)
	if remaining < 0 {
		return model.Post{}, errors.ErrClosed
	}

	c.opts.logger.WithPost(p.ID).Info("post scheduled", "publish_at", at.Format(time.RFC3339))
	c.publish(event.NewPostScheduledEvent(c.posts.TenantID(), p.ID, at))
	c.publish(event.NewNotificationEvent(event.LevelSuccess, "Post scheduled"))

	if remaining > 0 {
		date, ok := suggestDate(ctx, c.posts, c.opts.now(), c.opts.location)
		c.mu.Lock()
		if c.state != StateClosed {
			c.date, c.seeded, c.suggested = date, false, ok
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.state == StateMutating {
		c.state = c.idleOrEmpty()
	}
	c.mu.Unlock()
	return updated, nil
}

// Reject rejects the post under the cursor. Text and date are not sent.
func (c *Controller) Reject(ctx context.Context) (model.Post, error) {
	c.mu.Lock()
	p, err := c.beginMutation()
	if err != nil {
		c.mu.Unlock()
		return model.Post{}, err
	}
	c.state = StateMutating
	c.mu.Unlock()

	ctx, done := c.scope(ctx)
	defer done()

	updated, err := c.posts.UpdatePost(ctx, p.ID, model.RejectUpdate())
	if err != nil {
		return model.Post{}, c.failMutation(p, "reject", "reject", err)
	}

	if c.finishMutation(p.ID, true) < 0 {
		return model.Post{}, errors.ErrClosed
	}

	c.opts.logger.WithPost(p.ID).Info("post rejected")
	c.publish(event.NewPostRejectedEvent(c.posts.TenantID(), p.ID))
	c.publish(event.NewNotificationEvent(event.LevelSuccess, "Post rejected"))
	return updated, nil
}

// Close cancels in-flight requests. Responses that arrive afterwards are
// discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.cancel()
}

// beginMutation checks a mutation may start and returns the post under the
// cursor. Must be called with the mutex held.
func (c *Controller) beginMutation() (model.Post, error) {
	switch c.state {
	case StateClosed:
		return model.Post{}, errors.ErrClosed
	case StateMutating:
		return model.Post{}, errors.ErrMutationPending
	}
	p, ok := c.current()
	if !ok {
		return model.Post{}, errors.ErrEmptyQueue
	}
	return p, nil
}

// finishMutation removes id from the queue after a successful update and
// returns the remaining length, or -1 when the controller was closed. The
// state stays Mutating when items remain and settle is false, so that no
// second mutation starts before the follow-up suggestion arrives.
func (c *Controller) finishMutation(id string, settle bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return -1
	}

	if i := slices.IndexFunc(c.queue, func(p model.Post) bool { return p.ID == id }); i >= 0 {
		c.queue = slices.Delete(c.queue, i, i+1)
		if c.cursor > i {
			c.cursor--
		}
	}
	delete(c.texts, id)
	c.cursor = clamp(c.cursor, 0, max(len(c.queue)-1, 0))

	if settle || len(c.queue) == 0 {
		c.state = c.idleOrEmpty()
	}
	return len(c.queue)
}

// failMutation restores the idle state after a failed update, leaving the
// queue and cursor untouched, and reports the failure.
func (c *Controller) failMutation(p model.Post, action, op string, cause error) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return errors.ErrClosed
	}
	c.state = c.idleOrEmpty()
	c.mu.Unlock()

	err := errors.NewMutationError(op, "post", p.ID, cause)
	c.opts.logger.WithPost(p.ID).Error("post update failed", "action", action, "error", cause.Error())
	c.publish(event.NewPostMutationFailedEvent(c.posts.TenantID(), p.ID, action, err))
	c.publish(event.NewNotificationEvent(event.LevelError, notificationText(action, cause)))
	return err
}

// scope derives a request context that is also canceled by Close.
func (c *Controller) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateClosed
}

// current must be called with the mutex held.
func (c *Controller) current() (model.Post, bool) {
	if c.cursor < 0 || c.cursor >= len(c.queue) {
		return model.Post{}, false
	}
	return c.queue[c.cursor], true
}

// textOf must be called with the mutex held.
func (c *Controller) textOf(p model.Post) string {
	if t, ok := c.texts[p.ID]; ok {
		return t
	}
	return p.Text
}

// idleOrEmpty must be called with the mutex held.
func (c *Controller) idleOrEmpty() State {
	if len(c.queue) == 0 {
		return StateEmpty
	}
	return StateIdle
}

func (c *Controller) publish(e event.Event) {
	if c.opts.bus != nil {
		c.opts.bus.Publish(e)
	}
}

func notificationText(action string, err error) string {
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) {
		return "Could not " + action + " post: " + apiErr.Message()
	}
	return "Could not " + action + " post"
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
