package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/somesimplify/somectl/internal/model"
)

// RecordedRequest is a request seen by the fake backend.
type RecordedRequest struct {
	Method         string
	Path           string
	Query          string
	TenantID       string
	IdempotencyKey string
	Authorization  string
}

// Backend is an in-memory stand-in for the scheduling REST backend.
// Fields may be modified directly before requests are made; use Lock/Unlock
// when modifying them while requests are in flight.
type Backend struct {
	mu     sync.Mutex
	server *httptest.Server

	// Token, when set, is the only bearer token accepted.
	Token string
	// User is returned by GET /user.
	User model.Session
	// UserStatus overrides the GET /user status (e.g. 403 for no account).
	UserStatus int
	// Tenants is the session's tenant list.
	Tenants []model.Tenant
	// Posts, Images, Profiles and Connections are keyed by tenant ID.
	Posts       map[string][]model.Post
	Images      map[string][]model.Image
	Profiles    map[string]model.TenantProfile
	Connections map[string]*model.SocialConnection
	// Suggested is returned by GET /posts/suggested-date.
	Suggested time.Time
	// AuthURL is returned by GET /instagram/auth-url.
	AuthURL string

	failures map[string]int
	requests []RecordedRequest
	nextID   int
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		User:        model.Session{UserID: "u-1", FirstName: "Kari", LastName: "Nordmann", Email: "kari@example.com"},
		Posts:       make(map[string][]model.Post),
		Images:      make(map[string][]model.Image),
		Profiles:    make(map[string]model.TenantProfile),
		Connections: make(map[string]*model.SocialConnection),
		AuthURL:     "https://www.instagram.com/oauth/authorize?client_id=test",
		failures:    make(map[string]int),
	}
	b.server = httptest.NewServer(b.router())
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Lock locks the backend state.
func (b *Backend) Lock() { b.mu.Lock() }

// Unlock unlocks the backend state.
func (b *Backend) Unlock() { b.mu.Unlock() }

// Fail makes every request matching method and path answer with status.
// A status of 0 removes the failure.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(b.failures, key)
		return
	}
	b.failures[key] = status
}

// Requests returns a copy of every request seen so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// RequestsTo returns the recorded requests matching method and path.
func (b *Backend) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// AddPost stores a post for tenantID, assigning an ID when empty.
func (b *Backend) AddPost(tenantID string, p model.Post) model.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = b.newID("post")
	}
	b.Posts[tenantID] = append(b.Posts[tenantID], p)
	return p
}

// Post returns the stored post with id for tenantID.
func (b *Backend) Post(tenantID, id string) (model.Post, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.Posts[tenantID] {
		if p.ID == id {
			return p, true
		}
	}
	return model.Post{}, false
}

func (b *Backend) newID(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Use(b.authenticate)
	r.Use(b.injectFailures)

	r.Get("/user", b.getUser)
	r.Get("/tenants", b.listTenants)
	r.Get("/tenant/{id}", b.getTenant)
	r.Post("/tenant", b.createTenant)

	r.Group(func(r chi.Router) {
		r.Use(b.requireTenant)

		r.Get("/tenant/profile", b.getProfile)
		r.Put("/tenant/profile", b.putProfile)
		r.Get("/tenant/onboarding-status", b.onboardingStatus)

		r.Get("/posts", b.listPosts)
		r.Get("/posts/suggested-date", b.suggestedDate)
		r.Get("/posts/{id}", b.getPost)
		r.Patch("/posts/{id}", b.patchPost)

		r.Get("/images", b.listImages)
		r.Post("/images", b.uploadImage)
		r.Delete("/images/{id}", b.deleteImage)

		r.Get("/instagram/connection", b.getConnection)
		r.Delete("/instagram/connection", b.deleteConnection)
		r.Get("/instagram/auth-url", b.authURL)
	})
	return r
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:         r.Method,
			Path:           r.URL.Path,
			Query:          r.URL.RawQuery,
			TenantID:       r.Header.Get("X-Tenant-ID"),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
			Authorization:  r.Header.Get("Authorization"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		token := b.Token
		b.mu.Unlock()
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status, ok := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if ok {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Tenant-ID")
		b.mu.Lock()
		_, ok := model.FindTenant(b.Tenants, id)
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusForbidden, "no access to tenant")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

func (b *Backend) getUser(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	status, user := b.UserStatus, b.User
	b.mu.Unlock()
	if status != 0 && status != http.StatusOK {
		writeError(w, status, "user not registered")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) listTenants(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	tenants := slices.Clone(b.Tenants)
	b.mu.Unlock()
	if tenants == nil {
		tenants = []model.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (b *Backend) getTenant(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	t, ok := model.FindTenant(b.Tenants, chi.URLParam(r, "id"))
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) createTenant(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	b.mu.Lock()
	t := model.Tenant{ID: b.newID("tenant"), Name: req.Name}
	b.Tenants = append(b.Tenants, t)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, t.ID)
}

func (b *Backend) getProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.Profiles[r.Header.Get("X-Tenant-ID")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) putProfile(w http.ResponseWriter, r *http.Request) {
	var p model.TenantProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile")
		return
	}
	b.mu.Lock()
	b.Profiles[r.Header.Get("X-Tenant-ID")] = p
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) onboardingStatus(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Tenant-ID")
	b.mu.Lock()
	_, hasProfile := b.Profiles[id]
	hasConnection := b.Connections[id] != nil
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.OnboardingStatus{ProfileComplete: hasProfile, InstagramConnected: hasConnection})
}

func (b *Backend) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to time.Time
	if v := q.Get("fromDate"); v != "" {
		from, _ = time.Parse("2006-01-02", v)
	}
	if v := q.Get("toDate"); v != "" {
		to, _ = time.Parse("2006-01-02", v)
	}
	status := model.Status(q.Get("status"))

	b.mu.Lock()
	all := slices.Clone(b.Posts[r.Header.Get("X-Tenant-ID")])
	b.mu.Unlock()

	out := []model.Post{}
	for _, p := range all {
		if status != "" && p.Status != status {
			continue
		}
		if !from.IsZero() || !to.IsZero() {
			y, m, d, ok := p.PublishDate()
			if !ok {
				continue
			}
			day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			if (!from.IsZero() && day.Before(from)) || (!to.IsZero() && day.After(to)) {
				continue
			}
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) suggestedDate(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	s := b.Suggested
	b.mu.Unlock()
	if s.IsZero() {
		s = time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	}
	writeJSON(w, http.StatusOK, model.SuggestedDate{SuggestedDate: s})
}

func (b *Backend) getPost(w http.ResponseWriter, r *http.Request) {
	p, ok := b.Post(r.Header.Get("X-Tenant-ID"), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) patchPost(w http.ResponseWriter, r *http.Request) {
	var u model.UpdatePost
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	tenantID, id := r.Header.Get("X-Tenant-ID"), chi.URLParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()
	posts := b.Posts[tenantID]
	for i := range posts {
		if posts[i].ID != id {
			continue
		}
		if u.Status != nil && !posts[i].Status.CanTransition(*u.Status) {
			writeError(w, http.StatusConflict, "invalid status transition")
			return
		}
		if u.Text != nil {
			posts[i].Text = *u.Text
		}
		if u.PublishAt != nil {
			at := *u.PublishAt
			posts[i].PublishAt = &at
		}
		if u.Status != nil {
			posts[i].Status = *u.Status
		}
		writeJSON(w, http.StatusOK, posts[i])
		return
	}
	writeError(w, http.StatusNotFound, "post not found")
}

func (b *Backend) listImages(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	images := slices.Clone(b.Images[r.Header.Get("X-Tenant-ID")])
	b.mu.Unlock()
	if images == nil {
		images = []model.Image{}
	}
	writeJSON(w, http.StatusOK, images)
}

func (b *Backend) uploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	n, _ := io.Copy(io.Discard, file)

	b.mu.Lock()
	img := model.Image{
		ID:          b.newID("img"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		FileSize:    n,
		CreatedAt:   time.Now().UTC(),
	}
	img.URL = "https://cdn.example.com/" + img.ID
	img.ThumbnailURL = img.URL + "/thumb"
	tenantID := r.Header.Get("X-Tenant-ID")
	b.Images[tenantID] = append(b.Images[tenantID], img)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, img)
}

func (b *Backend) deleteImage(w http.ResponseWriter, r *http.Request) {
	tenantID, id := r.Header.Get("X-Tenant-ID"), chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	images := b.Images[tenantID]
	for i := range images {
		if images[i].ID == id {
			b.Images[tenantID] = slices.Delete(images, i, i+1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "image not found")
}

func (b *Backend) getConnection(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	c := b.Connections[r.Header.Get("X-Tenant-ID")]
	b.mu.Unlock()
	if c == nil {
		writeError(w, http.StatusNotFound, "not connected")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) deleteConnection(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.Connections, r.Header.Get("X-Tenant-ID"))
	b.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) authURL(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	u := b.AuthURL
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, model.AuthURL{AuthURL: u})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Status: status, Error: msg})
}
