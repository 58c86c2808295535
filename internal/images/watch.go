package images

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/somesimplify/somectl/internal/errors"
	"github.com/somesimplify/somectl/internal/event"
	"github.com/somesimplify/somectl/internal/model"
)

// watchDebounce is how long a file must be quiet before it is uploaded.
// Editors and copy tools often emit a create followed by several writes.
const watchDebounce = 200 * time.Millisecond

// WatchResult reports what happened to one file seen by Watch.
type WatchResult struct {
	Path  string
	Image model.Image
	Err   error
}

// Watch uploads every file created in dir until ctx is done. Files that fail
// validation are reported and skipped; each path is uploaded at most once.
// Files already in dir when Watch starts are ignored. report may be nil.
func (l *Library) Watch(ctx context.Context, dir string, report func(WatchResult)) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(err, "cannot watch "+dir)
	}
	if !info.IsDir() {
		return errors.NewValidationError("not a directory").WithField(dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(dir); err != nil {
		return errors.Wrap(err, "cannot watch "+dir)
	}
	l.logger.Info("watching directory", "dir", dir)

	if report == nil {
		report = func(WatchResult) {}
	}
	seen := make(map[string]struct{})
	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || hidden(ev.Name) {
				continue
			}
			if _, done := seen[ev.Name]; done {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(watchDebounce)

		case <-timer.C:
			for path := range pending {
				seen[path] = struct{}{}
				wg.Go(func() { report(l.watchUpload(ctx, path)) })
			}
			clear(pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watcher error", "dir", dir, "error", err.Error())
		}
	}
}

func (l *Library) watchUpload(ctx context.Context, path string) WatchResult {
	f, err := Check(path, l.maxSize)
	if err != nil {
		l.logger.Warn("skipping file", "file", path, "error", err.Error())
		l.publish(event.NewNotificationEvent(event.LevelWarning, filepath.Base(path)+": "+errors.UserMessage(err)))
		return WatchResult{Path: path, Err: err}
	}
	img, err := l.upload(ctx, f)
	if err != nil {
		return WatchResult{Path: path, Err: err}
	}
	l.publish(event.NewNotificationEvent(event.LevelSuccess, "Uploaded "+f.Name))
	return WatchResult{Path: path, Image: img}
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
