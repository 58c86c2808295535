package images

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/logging"
	"github.com/somesimplify/somectl/internal/model"
)

// DefaultConcurrency bounds parallel uploads when no limit is configured.
const DefaultConcurrency = 4

// Backend is the slice of the tenant API the library uses.
type Backend interface {
	TenantID() string
	ListImages(ctx context.Context) ([]model.Image, error)
	UploadImage(ctx context.Context, fileName, contentType string, r io.Reader) (model.Image, error)
	DeleteImage(ctx context.Context, id string) error
}

// Option configures a Library.
type Option func(*Library)

// WithMaxSize overrides MaxFileSize.
func WithMaxSize(n int64) Option {
	return func(l *Library) {
		if n > 0 {
			l.maxSize = n
		}
	}
}

// WithConcurrency bounds the number of uploads in flight.
func WithConcurrency(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBus publishes upload and delete events on b.
func WithBus(b *event.Bus) Option {
	return func(l *Library) { l.bus = b }
}

// Library is a tenant's content library.
type Library struct {
	backend     Backend
	maxSize     int64
	concurrency int
	logger      *logging.Logger
	bus         *event.Bus
}

// NewLibrary creates a Library backed by b.
func NewLibrary(b Backend, opts ...Option) *Library {
	l := &Library{
		backend:     b,
		maxSize:     MaxFileSize,
		concurrency: DefaultConcurrency,
		logger:      logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithTenant(b.TenantID()).WithComponent("images")
	return l
}

// MaxSize returns the largest accepted file size.
func (l *Library) MaxSize() int64 {
	return l.maxSize
}

// Upload validates every path and, only if all pass, uploads them in
// parallel. The returned images are in the order of paths. The first
// failed upload cancels the rest.
func (l *Library) Upload(ctx context.Context, paths ...string) ([]model.Image, error) {
	if len(paths) == 0 {
		return nil, errors.NewValidationError("no files to upload")
	}
	files := make([]File, len(paths))
	for i, p := range paths {
		f, err := Check(p, l.maxSize)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}

	out := make([]model.Image, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, f := range files {
		g.Go(func() error {
			img, err := l.upload(gctx, f)
			if err != nil {
				return err
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Library) upload(ctx context.Context, f File) (model.Image, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return model.Image{}, errors.Wrap(err, "cannot read "+f.Path)
	}
	defer func() { _ = fh.Close() }()

	img, err := l.backend.UploadImage(ctx, f.Name, f.ContentType, fh)
	if err != nil {
		l.logger.Error("image upload failed", "file", f.Name, "error", err.Error())
		return model.Image{}, errors.NewMutationError("upload", "image", f.Name, err)
	}
	l.logger.Info("image uploaded", "file", f.Name, "id", img.ID, "size", HumanSize(f.Size))
	l.publish(event.NewImageUploadedEvent(l.backend.TenantID(), img.ID, f.Name, f.Size))
	return img, nil
}

// List returns the library, newest first. A non-empty pattern is a glob
// matched case-insensitively against file names.
func (l *Library) List(ctx context.Context, pattern string) ([]model.Image, error) {
	var match glob.Glob
	if pattern != "" {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, errors.NewValidationError("invalid pattern").WithField("pattern").WithValue(pattern).WithCause(err)
		}
		match = g
	}

	all, err := l.backend.ListImages(ctx)
	if err != nil {
		return nil, errors.NewReadError("list", "images", err)
	}
	images := make([]model.Image, 0, len(all))
	for _, img := range all {
		if match == nil || match.Match(strings.ToLower(img.FileName)) {
			images = append(images, img)
		}
	}
	slices.SortStableFunc(images, func(a, b model.Image) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return images, nil
}

// Delete removes the image with id.
func (l *Library) Delete(ctx context.Context, id string) error {
	if err := l.backend.DeleteImage(ctx, id); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return errors.NewNotFoundError("image", id).WithCause(err)
		}
		return errors.NewMutationError("delete", "image", id, err)
	}
	l.logger.Info("image deleted", "id", id)
	l.publish(event.NewImageDeletedEvent(l.backend.TenantID(), id))
	return nil
}

func (l *Library) publish(e event.Event) {
	if l.bus != nil {
		l.bus.Publish(e)
	}
}
