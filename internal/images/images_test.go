package images

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/somesimplify/somectl/internal/api"
	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/model"
	"github.com/somesimplify/somectl/internal/testutil"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"jpeg", "image/jpeg", 1024, false},
		{"jpg alias", "image/jpg", 1024, false},
		{"png", "image/png", 1024, false},
		{"gif", "image/gif", 1024, false},
		{"webp", "image/webp", 1024, false},
		{"parameters ignored", "image/PNG; charset=binary", 1024, false},
		{"exactly the limit", "image/png", 5 * 1024 * 1024, false},
		{"one byte over", "image/png", 5*1024*1024 + 1, true},
		{"bmp", "image/bmp", 1024, true},
		{"svg", "image/svg+xml", 1024, true},
		{"pdf", "application/pdf", 1024, true},
		{"empty type", "", 1024, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("file", tt.contentType, tt.size, 0)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.Classify(err) != errors.CategoryValidation {
				t.Errorf("Classify() = %v, want validation", errors.Classify(err))
			}
		})
	}
}

func TestValidate_CustomLimit(t *testing.T) {
	if err := Validate("a.png", "image/png", 2048, 1024); err == nil {
		t.Error("Validate() should reject files over a custom limit")
	}
	err := Validate("a.png", "image/png", 6*1024*1024, 0)
	if err == nil || !strings.Contains(errors.UserMessage(err), "5.0 MiB") {
		t.Errorf("Validate() message = %q", errors.UserMessage(err))
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"photo.png", testutil.PNG(100), "image/png"},
		{"photo.JPG", testutil.JPEG(100), "image/jpeg"},
		{"no-extension", testutil.PNG(100), "image/png"},
		{"notes.txt", []byte("hello world"), "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, dir, tt.name, tt.data)
			f, err := Inspect(path)
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if f.ContentType != tt.want || f.Size != int64(len(tt.data)) || f.Name != tt.name {
				t.Errorf("Inspect() = %+v, want type %s", f, tt.want)
			}
		})
	}

	if _, err := Inspect(dir); err == nil {
		t.Error("Inspect(dir) should fail")
	}
	if _, err := Inspect(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Inspect(missing) should fail")
	}
}

func TestHumanSize(t *testing.T) {
	if got := HumanSize(5 * 1024 * 1024); got != "5.0 MiB" {
		t.Errorf("HumanSize() = %q", got)
	}
	if got := HumanSize(-1); got != "0 B" {
		t.Errorf("HumanSize(-1) = %q", got)
	}
}

type fixture struct {
	backend *testutil.Backend
	library *Library

	mu     sync.Mutex
	events []event.Event
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{backend: testutil.NewBackend(t)}
	client, err := api.New(f.backend.URL())
	if err != nil {
		t.Fatal(err)
	}
	bus := event.NewBus()
	bus.SubscribeAll(func(e event.Event) {
		f.mu.Lock()
		f.events = append(f.events, e)
		f.mu.Unlock()
	})
	f.library = NewLibrary(client.ForTenant("t-1"), append([]Option{WithBus(bus)}, opts...)...)
	return f
}

func (f *fixture) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, e := range f.events {
		types = append(types, e.EventType())
	}
	return types
}

func TestLibrary_Upload(t *testing.T) {
	f := newFixture(t, WithConcurrency(2))
	dir := t.TempDir()
	paths := []string{
		testutil.WriteFile(t, dir, "a.png", testutil.PNG(256)),
		testutil.WriteFile(t, dir, "b.jpg", testutil.JPEG(512)),
		testutil.WriteFile(t, dir, "c.png", testutil.PNG(128)),
	}

	images, err := f.library.Upload(context.Background(), paths...)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("len(images) = %d, want 3", len(images))
	}
	for i, want := range []string{"a.png", "b.jpg", "c.png"} {
		if images[i].FileName != want {
			t.Errorf("images[%d].FileName = %q, want %q", i, images[i].FileName, want)
		}
	}
	if images[1].ContentType != "image/jpeg" || images[1].FileSize != 512 {
		t.Errorf("images[1] = %+v", images[1])
	}

	reqs := f.backend.RequestsTo(http.MethodPost, "/images")
	if len(reqs) != 3 {
		t.Errorf("upload requests = %d, want 3", len(reqs))
	}
	for _, r := range reqs {
		if r.TenantID != "t-1" {
			t.Errorf("upload without tenant header: %+v", r)
		}
	}
	if n := len(slices.DeleteFunc(f.eventTypes(), func(s string) bool { return s != event.TypeImageUploaded })); n != 3 {
		t.Errorf("image.uploaded events = %d, want 3", n)
	}
}

func TestLibrary_UploadValidatesBeforeSending(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"too large", "big.png", testutil.PNG(5*1024*1024 + 1)},
		{"bmp", "pic.bmp", append([]byte("BM"), make([]byte, 64)...)},
		{"text", "notes.txt", []byte("not an image")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			dir := t.TempDir()
			good := testutil.WriteFile(t, dir, "ok.png", testutil.PNG(64))
			bad := testutil.WriteFile(t, dir, tt.file, tt.data)

			_, err := f.library.Upload(context.Background(), good, bad)
			var verr *errors.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Upload() error = %v, want ValidationError", err)
			}
			if n := len(f.backend.RequestsTo(http.MethodPost, "/images")); n != 0 {
				t.Errorf("sent %d uploads despite a rejected file", n)
			}
		})
	}
}

func TestLibrary_UploadFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.Fail(http.MethodPost, "/images", http.StatusInternalServerError)
	path := testutil.WriteFile(t, t.TempDir(), "a.png", testutil.PNG(64))

	_, err := f.library.Upload(context.Background(), path)
	if errors.Classify(err) != errors.CategoryMutation {
		t.Errorf("Upload() error = %v, want mutation error", err)
	}
}

func TestLibrary_UploadNothing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.library.Upload(context.Background()); err == nil {
		t.Error("Upload() with no paths should fail")
	}
}

func TestLibrary_List(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	f.backend.Images = map[string][]model.Image{"t-1": {
		{ID: "1", FileName: "Summer.PNG", CreatedAt: base},
		{ID: "2", FileName: "menu.jpg", CreatedAt: base.Add(time.Hour)},
		{ID: "3", FileName: "summer-2.png", CreatedAt: base.Add(2 * time.Hour)},
	}}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"3", "2", "1"}},
		{"summer*", []string{"3", "1"}},
		{"*.jpg", []string{"2"}},
		{"{menu,nothing}.*", []string{"2"}},
		{"*.gif", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			images, err := f.library.List(context.Background(), tt.pattern)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var ids []string
			for _, img := range images {
				ids = append(ids, img.ID)
			}
			if !slices.Equal(ids, tt.want) {
				t.Errorf("List(%q) = %v, want %v", tt.pattern, ids, tt.want)
			}
		})
	}

	if _, err := f.library.List(context.Background(), "[unclosed"); err == nil {
		t.Error("List() with a bad pattern should fail")
	}
}

func TestLibrary_Delete(t *testing.T) {
	f := newFixture(t)
	f.backend.Images = map[string][]model.Image{"t-1": {{ID: "img-1", FileName: "a.png"}}}

	if err := f.library.Delete(context.Background(), "img-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !slices.Contains(f.eventTypes(), event.TypeImageDeleted) {
		t.Error("no image.deleted event")
	}

	err := f.library.Delete(context.Background(), "img-1")
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Delete() twice error = %v, want NotFoundError", err)
	}
}

func TestLibrary_Watch(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "existing.png", testutil.PNG(64))

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan WatchResult, 4)
	done := make(chan error, 1)
	go func() { done <- f.library.Watch(ctx, dir, func(r WatchResult) { results <- r }) }()

	// Give the watcher time to register before creating files.
	deadline := time.After(5 * time.Second)
	var got []WatchResult
	wrote := false
	for len(got) < 2 {
		if !wrote {
			time.Sleep(100 * time.Millisecond)
			testutil.WriteFile(t, dir, "new.png", testutil.PNG(64))
			testutil.WriteFile(t, dir, "bad.bmp", append([]byte("BM"), make([]byte, 64)...))
			_ = os.WriteFile(filepath.Join(dir, ".hidden.png"), testutil.PNG(64), 0o644)
			wrote = true
		}
		select {
		case r := <-results:
			got = append(got, r)
		case <-deadline:
			t.Fatalf("timed out waiting for watch results, got %+v", got)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}

	byName := make(map[string]WatchResult)
	for _, r := range got {
		byName[filepath.Base(r.Path)] = r
	}
	if r := byName["new.png"]; r.Err != nil || r.Image.ID == "" {
		t.Errorf("new.png result = %+v", r)
	}
	if r := byName["bad.bmp"]; r.Err == nil {
		t.Errorf("bad.bmp should be rejected, got %+v", r)
	}
	reqs := f.backend.RequestsTo(http.MethodPost, "/images")
	if len(reqs) != 1 {
		t.Errorf("upload requests = %d, want 1", len(reqs))
	}
}

func TestLibrary_WatchNotADirectory(t *testing.T) {
	f := newFixture(t)
	path := testutil.WriteFile(t, t.TempDir(), "a.png", testutil.PNG(8))
	if err := f.library.Watch(context.Background(), path, nil); err == nil {
		t.Error("Watch(file) should fail")
	}
}
