package identity

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/testutil"
)

type fakeFetcher struct {
	calls   atomic.Int32
	session model.Session
	err     error
	release chan struct{}
}

func (f *fakeFetcher) GetUser(ctx context.Context) (model.Session, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.session, f.err
}

func TestResolver_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantGate   bool
		wantCat    errors.Category
	}{
		{
			name:       "success",
			wantStatus: StatusResolved,
			wantGate:   true,
		},
		{
			name:       "no account",
			err:        errors.NewAPIError(http.MethodGet, "/user", http.StatusForbidden, "user not registered"),
			wantStatus: StatusNeedsRegistration,
			wantCat:    errors.CategoryAuth,
		},
		{
			name:       "unauthorized",
			err:        errors.NewAPIError(http.MethodGet, "/user", http.StatusUnauthorized, "bad token"),
			wantStatus: StatusFailed,
			wantCat:    errors.CategoryAuth,
		},
		{
			name:       "network failure",
			err:        errors.NewTransportError(http.MethodGet, "/user", fmt.Errorf("connection refused")),
			wantStatus: StatusFailed,
			wantCat:    errors.CategoryRead,
		},
		{
			name:       "server error",
			err:        errors.NewAPIError(http.MethodGet, "/user", http.StatusInternalServerError, ""),
			wantStatus: StatusFailed,
			wantCat:    errors.CategoryRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{session: model.Session{UserID: "u-1"}, err: tt.err}
			r := NewResolver(f, WithRegistrationURL("https://app.example.com/register"))

			if r.State().Status != StatusPending || r.State().Gate() {
				t.Fatalf("initial state = %+v, want closed pending gate", r.State())
			}

			st := r.Resolve(context.Background())
			if st.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", st.Status, tt.wantStatus)
			}
			if st.Gate() != tt.wantGate {
				t.Errorf("Gate() = %v, want %v", st.Gate(), tt.wantGate)
			}
			if tt.err != nil {
				if st.Err == nil {
					t.Fatal("Err = nil, want error retained")
				}
				if got := errors.Classify(st.Err); got != tt.wantCat {
					t.Errorf("Classify(Err) = %v, want %v", got, tt.wantCat)
				}
			}
		})
	}
}

func TestResolver_NeedsRegistrationCarriesURL(t *testing.T) {
	f := &fakeFetcher{err: errors.NewAPIError(http.MethodGet, "/user", http.StatusForbidden, "")}
	r := NewResolver(f, WithRegistrationURL("https://app.example.com/register"))

	st := r.Resolve(context.Background())
	if st.RegistrationURL != "https://app.example.com/register" {
		t.Errorf("RegistrationURL = %q", st.RegistrationURL)
	}
	var authErr *errors.AuthError
	if !errors.As(st.Err, &authErr) || !authErr.NeedsRegistration() {
		t.Errorf("Err = %v, want AuthError needing registration", st.Err)
	}
	if authErr.RegistrationURL != st.RegistrationURL {
		t.Errorf("AuthError.RegistrationURL = %q", authErr.RegistrationURL)
	}
}

func TestResolver_FetchesExactlyOnce(t *testing.T) {
	f := &fakeFetcher{
		session: model.Session{UserID: "u-1"},
		release: make(chan struct{}),
	}
	r := NewResolver(f)

	var wg sync.WaitGroup
	states := make([]State, 5)
	for i := range states {
		wg.Go(func() {
			states[i] = r.Resolve(context.Background())
		})
	}
	// Give the callers time to pile up on the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	if got := r.State().Status; got != StatusPending {
		t.Errorf("State() during fetch = %v, want pending", got)
	}
	close(f.release)
	wg.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Errorf("GetUser called %d times, want 1", n)
	}
	for i, st := range states {
		if st.Status != StatusResolved || st.Session.UserID != "u-1" {
			t.Errorf("caller %d state = %+v", i, st)
		}
	}

	// No retry after a completed resolution.
	r.Resolve(context.Background())
	if n := f.calls.Load(); n != 1 {
		t.Errorf("GetUser called %d times after second Resolve, want 1", n)
	}
}

func TestResolver_FailureIsNotRetried(t *testing.T) {
	f := &fakeFetcher{err: errors.NewTransportError(http.MethodGet, "/user", fmt.Errorf("boom"))}
	r := NewResolver(f)

	r.Resolve(context.Background())
	f.err = nil
	st := r.Resolve(context.Background())
	if st.Status != StatusFailed || f.calls.Load() != 1 {
		t.Errorf("second Resolve = %v after %d calls, want failed after 1", st.Status, f.calls.Load())
	}
}

func TestResolver_ExpiredTokenSkipsFetch(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(-time.Minute)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeFetcher{session: model.Session{UserID: "u-1"}}
	r := NewResolver(f, WithToken(token), WithClock(clock.NowFunc()))

	st := r.Resolve(context.Background())
	if st.Status != StatusFailed || !errors.Is(st.Err, errors.ErrTokenExpired) {
		t.Errorf("Resolve() = %+v, want failed with ErrTokenExpired", st)
	}
	if f.calls.Load() != 0 {
		t.Errorf("GetUser called %d times, want 0", f.calls.Load())
	}
}

func TestResolver_OpaqueTokenStillFetches(t *testing.T) {
	f := &fakeFetcher{session: model.Session{UserID: "u-1"}}
	r := NewResolver(f, WithToken("opaque-session-token"))

	if st := r.Resolve(context.Background()); st.Status != StatusResolved {
		t.Errorf("Status = %v, want resolved", st.Status)
	}
}

func TestResolver_PublishesSessionResolved(t *testing.T) {
	bus := event.NewBus()
	var got []event.Event
	bus.Subscribe(event.TypeSessionResolved, func(e event.Event) {
		got = append(got, e)
	})

	f := &fakeFetcher{session: model.Session{UserID: "u-1", Email: "kari@example.com"}}
	NewResolver(f, WithBus(bus)).Resolve(context.Background())

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	e, ok := got[0].(event.SessionResolvedEvent)
	if !ok || e.UserID != "u-1" {
		t.Errorf("event = %#v", got[0])
	}
}

func TestResolver_AgainstBackend(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Token = "secret"

	c, err := api.New(b.URL(), api.WithToken("secret"))
	if err != nil {
		t.Fatal(err)
	}
	st := NewResolver(c, WithToken("secret")).Resolve(context.Background())
	if !st.Gate() || st.Session.DisplayName() != "Kari Nordmann" {
		t.Errorf("Resolve() = %+v", st)
	}

	b.UserStatus = http.StatusForbidden
	st = NewResolver(c).Resolve(context.Background())
	if st.Status != StatusNeedsRegistration {
		t.Errorf("Status = %v, want needs_registration", st.Status)
	}
}
