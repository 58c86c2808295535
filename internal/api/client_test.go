package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/testutil"
)

func newTestClient(t *testing.T, b *testutil.Backend, opts ...ClientOption) *Client {
	t.Helper()
	c, err := New(b.URL(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"https", "https://api.example.com", false},
		{"trailing slash", "http://localhost:8080/", false},
		{"no scheme", "api.example.com", true},
		{"ftp", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}
}

func TestClient_GetUser(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Token = "secret"
	c := newTestClient(t, b, WithToken("secret"))

	s, err := c.GetUser(context.Background())
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if !s.Authenticated || s.UserID != "u-1" || s.Email != "kari@example.com" {
		t.Errorf("GetUser() = %+v", s)
	}

	reqs := b.RequestsTo(http.MethodGet, "/user")
	if len(reqs) != 1 {
		t.Fatalf("expected 1 /user request, got %d", len(reqs))
	}
	if reqs[0].Authorization != "Bearer secret" {
		t.Errorf("Authorization = %q", reqs[0].Authorization)
	}
	if reqs[0].TenantID != "" {
		t.Errorf("session-scoped request sent tenant header %q", reqs[0].TenantID)
	}
}

func TestClient_GetUser_Errors(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		userStatus int
		wantStatus int
		wantMsg    string
	}{
		{"no account", "secret", http.StatusForbidden, 403, "user not registered"},
		{"bad token", "wrong", 0, 401, "unauthorized"},
		{"server error", "secret", http.StatusInternalServerError, 500, "user not registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBackend(t)
			b.Token = "secret"
			b.UserStatus = tt.userStatus
			c := newTestClient(t, b, WithToken(tt.token))

			_, err := c.GetUser(context.Background())
			var apiErr *errors.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("GetUser() error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if apiErr.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", apiErr.Message(), tt.wantMsg)
			}
		})
	}
}

func TestClient_PlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ListTenants(context.Background())
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message() != "gateway exploded" || !apiErr.IsRetryable() {
		t.Errorf("unexpected error: %v (retryable=%v)", apiErr, apiErr.IsRetryable())
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.GetUser(context.Background())
	if !errors.Is(err, errors.ErrServerUnavailable) {
		t.Errorf("GetUser() error = %v, want ErrServerUnavailable", err)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = c.GetUser(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GetUser() error = %v, want context.Canceled", err)
	}
}

func TestClient_Tenants(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1", Name: "Bakeriet"}}
	c := newTestClient(t, b)
	ctx := context.Background()

	tenants, err := c.ListTenants(ctx)
	if err != nil {
		t.Fatalf("ListTenants() error = %v", err)
	}
	if len(tenants) != 1 || tenants[0].Name != "Bakeriet" {
		t.Errorf("ListTenants() = %+v", tenants)
	}

	id, err := c.CreateTenant(ctx, "Puben")
	if err != nil {
		t.Fatalf("CreateTenant() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateTenant() returned empty id")
	}

	got, err := c.GetTenant(ctx, id)
	if err != nil {
		t.Fatalf("GetTenant() error = %v", err)
	}
	if got.Name != "Puben" {
		t.Errorf("GetTenant() = %+v", got)
	}

	_, err = c.GetTenant(ctx, "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetTenant(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTenantClient_ScopesEveryRequest(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}, {ID: "t-2"}}
	b.AddPost("t-1", model.Post{Text: "one", Status: model.StatusDraft})
	b.AddPost("t-2", model.Post{Text: "two", Status: model.StatusDraft})
	c := newTestClient(t, b)

	// Two tenant clients used concurrently must never see each other's posts.
	var wg sync.WaitGroup
	results := make(map[string][]model.Post)
	var mu sync.Mutex
	for _, id := range []string{"t-1", "t-2"} {
		tc := c.ForTenant(id)
		wg.Go(func() {
			for range 10 {
				posts, err := tc.ListPosts(context.Background(), model.PostFilter{})
				if err != nil {
					t.Errorf("ListPosts(%s) error = %v", tc.TenantID(), err)
					return
				}
				mu.Lock()
				results[tc.TenantID()] = posts
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if len(results["t-1"]) != 1 || results["t-1"][0].Text != "one" {
		t.Errorf("t-1 posts = %+v", results["t-1"])
	}
	if len(results["t-2"]) != 1 || results["t-2"][0].Text != "two" {
		t.Errorf("t-2 posts = %+v", results["t-2"])
	}

	for _, r := range b.RequestsTo(http.MethodGet, "/posts") {
		if r.TenantID != "t-1" && r.TenantID != "t-2" {
			t.Errorf("request without tenant header: %+v", r)
		}
	}

	// The unscoped client still never sends the header.
	if _, err := c.ListTenants(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r := b.RequestsTo(http.MethodGet, "/tenants"); r[0].TenantID != "" {
		t.Errorf("unscoped request carried tenant %q", r[0].TenantID)
	}
}

func TestTenantClient_ForbiddenIsTenantError(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newTestClient(t, b)

	_, err := c.ForTenant("gone").ListPosts(context.Background(), model.PostFilter{})
	if errors.Classify(err) != errors.CategoryTenant {
		t.Errorf("Classify() = %v, want tenant", errors.Classify(err))
	}
	if !errors.Is(err, errors.ErrTenantForbidden) {
		t.Errorf("error = %v, want ErrTenantForbidden", err)
	}
	var te *errors.TenantError
	if !errors.As(err, &te) || te.TenantID != "gone" {
		t.Errorf("error = %v, want TenantError for 'gone'", err)
	}
}

func TestTenantClient_ListPostsQuery(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	in := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	out := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	b.AddPost("t-1", model.Post{ID: "in", PublishAt: &in, Status: model.StatusScheduled})
	b.AddPost("t-1", model.Post{ID: "out", PublishAt: &out, Status: model.StatusScheduled})
	b.AddPost("t-1", model.Post{ID: "draft", Status: model.StatusDraft})

	tc := newTestClient(t, b).ForTenant("t-1")
	posts, err := tc.ListPosts(context.Background(), model.PostFilter{
		From: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "in" {
		t.Errorf("ListPosts() = %+v, want only 'in'", posts)
	}

	reqs := b.RequestsTo(http.MethodGet, "/posts")
	if got := reqs[0].Query; got != "fromDate=2025-03-01&toDate=2025-03-31" {
		t.Errorf("query = %q", got)
	}

	drafts, err := tc.ListPosts(context.Background(), model.PostFilter{Status: model.StatusDraft})
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 1 || drafts[0].ID != "draft" {
		t.Errorf("drafts = %+v", drafts)
	}
}

func TestTenantClient_UpdatePost(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	p := b.AddPost("t-1", model.Post{Text: "draft", Status: model.StatusDraft})

	keys := []string{"key-1", "key-2"}
	next := 0
	tc := newTestClient(t, b, WithIdempotencyKeys(func() string {
		k := keys[next]
		next++
		return k
	})).ForTenant("t-1")

	at := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	updated, err := tc.UpdatePost(context.Background(), p.ID, model.ScheduleUpdate("edited", at))
	if err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if updated.Status != model.StatusScheduled || updated.Text != "edited" || !updated.PublishAt.Equal(at) {
		t.Errorf("UpdatePost() = %+v", updated)
	}

	// A forbidden transition is a conflict
	_, err = tc.UpdatePost(context.Background(), p.ID, model.RejectUpdate())
	if errors.StatusCode(err) != http.StatusConflict {
		t.Errorf("UpdatePost(reject scheduled) status = %d, want 409", errors.StatusCode(err))
	}

	reqs := b.RequestsTo(http.MethodPatch, "/posts/"+p.ID)
	if len(reqs) != 2 || reqs[0].IdempotencyKey != "key-1" || reqs[1].IdempotencyKey != "key-2" {
		t.Errorf("idempotency keys = %+v", reqs)
	}
}

func TestTenantClient_DefaultIdempotencyKeyIsUUID(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	p := b.AddPost("t-1", model.Post{Status: model.StatusDraft})

	tc := newTestClient(t, b).ForTenant("t-1")
	if _, err := tc.UpdatePost(context.Background(), p.ID, model.RejectUpdate()); err != nil {
		t.Fatal(err)
	}
	key := b.RequestsTo(http.MethodPatch, "/posts/"+p.ID)[0].IdempotencyKey
	if len(key) != 36 || strings.Count(key, "-") != 4 {
		t.Errorf("idempotency key %q is not a UUID", key)
	}
}

func TestTenantClient_SuggestedDate(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	b.Suggested = time.Date(2025, 3, 20, 18, 0, 0, 0, time.UTC)

	got, err := newTestClient(t, b).ForTenant("t-1").SuggestedDate(context.Background())
	if err != nil {
		t.Fatalf("SuggestedDate() error = %v", err)
	}
	if !got.Equal(b.Suggested) {
		t.Errorf("SuggestedDate() = %v, want %v", got, b.Suggested)
	}
}

func TestTenantClient_Images(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	tc := newTestClient(t, b).ForTenant("t-1")
	ctx := context.Background()

	img, err := tc.UploadImage(ctx, `my "best" bread.png`, "image/png", bytes.NewReader(testutil.PNG(1024)))
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if img.FileName != `my "best" bread.png` || img.ContentType != "image/png" || img.FileSize != 1024 {
		t.Errorf("UploadImage() = %+v", img)
	}

	images, err := tc.ListImages(ctx)
	if err != nil || len(images) != 1 {
		t.Fatalf("ListImages() = %v, %v", images, err)
	}

	if err := tc.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	if err := tc.DeleteImage(ctx, img.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second DeleteImage() error = %v, want ErrNotFound", err)
	}
}

func TestTenantClient_ProfileAndOnboarding(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	tc := newTestClient(t, b).ForTenant("t-1")
	ctx := context.Background()

	p, err := tc.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p.Address != "" {
		t.Errorf("GetProfile() = %+v, want zero value", p)
	}

	status, err := tc.OnboardingStatus(ctx)
	if err != nil || status.ProfileComplete {
		t.Fatalf("OnboardingStatus() = %+v, %v", status, err)
	}

	want := model.TenantProfile{
		Address:        "Storgata 1",
		Concept:        "Bakeri",
		TargetAudience: []string{"Studenter"},
		WebsiteURL:     "https://bakeriet.no",
	}
	if _, err := tc.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	got, err := tc.GetProfile(ctx)
	if err != nil || got.Address != want.Address || got.Concept != want.Concept {
		t.Errorf("GetProfile() = %+v, %v", got, err)
	}

	status, _ = tc.OnboardingStatus(ctx)
	if !status.ProfileComplete || status.InstagramConnected {
		t.Errorf("OnboardingStatus() = %+v", status)
	}
}

func TestTenantClient_Instagram(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Tenants = []model.Tenant{{ID: "t-1"}}
	tc := newTestClient(t, b).ForTenant("t-1")
	ctx := context.Background()

	conn, err := tc.InstagramConnection(ctx)
	if err != nil || conn != nil {
		t.Fatalf("InstagramConnection() = %+v, %v, want nil, nil", conn, err)
	}

	u, err := tc.InstagramAuthURL(ctx)
	if err != nil || !strings.HasPrefix(u, "https://www.instagram.com/") {
		t.Errorf("InstagramAuthURL() = %q, %v", u, err)
	}

	b.Lock()
	b.Connections["t-1"] = &model.SocialConnection{Platform: model.PlatformInstagram, AccountName: "bakeriet"}
	b.Unlock()

	conn, err = tc.InstagramConnection(ctx)
	if err != nil || conn == nil || conn.AccountName != "bakeriet" {
		t.Fatalf("InstagramConnection() = %+v, %v", conn, err)
	}

	if err := tc.DisconnectInstagram(ctx); err != nil {
		t.Fatalf("DisconnectInstagram() error = %v", err)
	}
	if conn, _ := tc.InstagramConnection(ctx); conn != nil {
		t.Errorf("connection still present after disconnect: %+v", conn)
	}
}
