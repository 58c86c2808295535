// Package identity resolves the current user's session.
//
// A [Resolver] fetches the identity behind the configured bearer token
// exactly once. Every protected view waits on its [State]: nothing renders
// until the state leaves [StatusPending], and only [StatusResolved] opens the
// gate.
package identity

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
)

// UserFetcher fetches the identity behind the session's credentials.
type UserFetcher interface {
	GetUser(ctx context.Context) (model.Session, error)
}

// Status is the resolution progress of a session.
type Status int

const (
	// StatusPending means the identity fetch has not completed.
	StatusPending Status = iota
	// StatusResolved means the session is authenticated.
	StatusResolved
	// StatusNeedsRegistration means the identity has no provisioned account.
	StatusNeedsRegistration
	// StatusFailed means the fetch failed; Err holds the reason.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusNeedsRegistration:
		return "needs_registration"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the resolver.
type State struct {
	Status  Status
	Session model.Session
	// RegistrationURL is set when Status is StatusNeedsRegistration.
	RegistrationURL string
	Err             error
}

// Gate reports whether protected views may render.
func (s State) Gate() bool {
	return s.Status == StatusResolved && s.Session.Authenticated
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithToken lets the resolver inspect the bearer token before fetching, so
// an expired token fails without a request.
func WithToken(token string) Option {
	return func(r *Resolver) {
		r.token = token
	}
}

// WithRegistrationURL sets where unprovisioned users are sent.
func WithRegistrationURL(url string) Option {
	return func(r *Resolver) {
		r.registrationURL = url
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBus publishes a session.resolved event on success.
func WithBus(bus *event.Bus) Option {
	return func(r *Resolver) {
		r.bus = bus
	}
}

// Resolver resolves the session once per lifetime. It is safe for
// concurrent use; concurrent callers share the single in-flight fetch.
type Resolver struct {
	fetcher         UserFetcher
	token           string
	registrationURL string
	now             func() time.Time
	logger          *logging.Logger
	bus             *event.Bus

	once  sync.Once
	mu    sync.RWMutex
	state State
}

// NewResolver creates a Resolver backed by fetcher.
func NewResolver(fetcher UserFetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		now:     time.Now,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("identity")
	return r
}

// State returns the current state without blocking.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Resolve performs the identity fetch on first call and returns its
// outcome. Later calls return the same outcome without another request,
// whatever it was; there is no retry.
func (r *Resolver) Resolve(ctx context.Context) State {
	r.once.Do(func() {
		st := r.resolve(ctx)
		r.mu.Lock()
		r.state = st
		r.mu.Unlock()
	})
	return r.State()
}

func (r *Resolver) resolve(ctx context.Context) State {
	if r.token != "" {
		// Opaque tokens cannot be inspected; let the backend judge them.
		if info, err := api.InspectToken(r.token); err == nil && info.Expired(r.now()) {
			r.logger.Warn("bearer token expired", "expires_at", info.ExpiresAt.Format(time.RFC3339))
			return State{
				Status: StatusFailed,
				Err:    errors.NewAuthError("bearer token has expired", errors.ErrTokenExpired),
			}
		}
	}

	session, err := r.fetcher.GetUser(ctx)
	if err == nil {
		session.Authenticated = true
		r.logger.WithUser(session.UserID).Info("session resolved")
		if r.bus != nil {
			r.bus.Publish(event.NewSessionResolvedEvent(session.UserID, session.Email))
		}
		return State{Status: StatusResolved, Session: session}
	}

	switch errors.StatusCode(err) {
	case http.StatusForbidden:
		r.logger.Info("identity has no account", "registration_url", r.registrationURL)
		return State{
			Status:          StatusNeedsRegistration,
			RegistrationURL: r.registrationURL,
			Err: errors.NewAuthError("no account provisioned", errors.Join(errors.ErrNoAccount, err)).
				WithStatusCode(http.StatusForbidden).
				WithRegistrationURL(r.registrationURL),
		}
	case http.StatusUnauthorized:
		r.logger.Warn("session rejected", "error", err.Error())
		return State{
			Status: StatusFailed,
			Err: errors.NewAuthError("session is not authenticated", errors.Join(errors.ErrUnauthenticated, err)).
				WithStatusCode(http.StatusUnauthorized),
		}
	}

	r.logger.Error("identity fetch failed", "error", err.Error())
	return State{Status: StatusFailed, Err: errors.NewReadError("fetch", "session", err)}
}
