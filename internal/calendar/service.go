package calendar

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
)

// PostLister is the slice of the tenant API the calendar reads from.
type PostLister interface {
	TenantID() string
	ListPosts(ctx context.Context, filter model.PostFilter) ([]model.Post, error)
}

// Option configures a Service.
type Option func(*Service)

// WithCache keeps up to size fetched months for ttl. A non-positive ttl
// disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize, s.cacheTTL = size, ttl
	}
}

// WithClock sets the function used to mark today's cell.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBus subscribes the service to post mutations so a month is refetched
// after a post in this tenant was scheduled or rejected.
func WithBus(b *event.Bus) Option {
	return func(s *Service) { s.bus = b }
}

// Service fetches the posts for a month and projects them onto a grid.
type Service struct {
	posts  PostLister
	now    func() time.Time
	logger *logging.Logger
	bus    *event.Bus
	subs   []event.Subscription

	cacheSize int
	cacheTTL  time.Duration
	cache     *expirable.LRU[string, []model.Post]
}

// NewService creates a Service for the tenant behind posts.
func NewService(posts PostLister, opts ...Option) *Service {
	s := &Service{
		posts:     posts,
		now:       time.Now,
		logger:    logging.NopLogger(),
		cacheSize: 12,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithTenant(posts.TenantID()).WithComponent("calendar")

	if s.cacheTTL > 0 {
		s.cache = expirable.NewLRU[string, []model.Post](max(s.cacheSize, 1), nil, s.cacheTTL)
	}
	if s.bus != nil {
		s.subs = append(s.subs,
			s.bus.Subscribe(event.TypePostScheduled, s.onMutation),
			s.bus.Subscribe(event.TypePostRejected, s.onMutation),
		)
	}
	return s
}

// Month fetches the posts of m and projects them.
func (s *Service) Month(ctx context.Context, m Month) (Grid, error) {
	posts, err := s.Posts(ctx, m)
	if err != nil {
		return Grid{}, err
	}
	return Project(m, posts, s.now()), nil
}

// Posts returns the posts publishing in m, from cache when fresh.
func (s *Service) Posts(ctx context.Context, m Month) ([]model.Post, error) {
	key := s.key(m)
	if s.cache != nil {
		if posts, ok := s.cache.Get(key); ok {
			return posts, nil
		}
	}

	from, to := m.Range()
	posts, err := s.posts.ListPosts(ctx, model.PostFilter{From: from, To: to})
	if err != nil {
		return nil, errors.NewReadError("load", "calendar "+m.String(), err)
	}
	s.logger.Debug("month loaded", "month", m.String(), "posts", len(posts))

	if s.cache != nil {
		s.cache.Add(key, posts)
	}
	return posts, nil
}

// Invalidate drops every cached month.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// Close unsubscribes from the bus.
func (s *Service) Close() {
	for _, id := range s.subs {
		s.bus.Unsubscribe(id)
	}
	s.subs = nil
}

func (s *Service) onMutation(e event.Event) {
	var tenantID string
	switch ev := e.(type) {
	case event.PostScheduledEvent:
		tenantID = ev.TenantID
	case event.PostRejectedEvent:
		tenantID = ev.TenantID
	}
	if tenantID != s.posts.TenantID() {
		return
	}
	s.logger.Debug("calendar cache invalidated", "event", e.EventType())
	s.Invalidate()
}

func (s *Service) key(m Month) string {
	return s.posts.TenantID() + "/" + m.String()
}
