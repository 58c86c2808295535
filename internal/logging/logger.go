package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Levels accepted by NewLogger.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the log file inside the state directory.
const LogFileName = "debug.log"

// Logger writes structured JSON entries. Child loggers created with the
// With* methods share the parent's output and add attributes to every entry.
// It is safe for concurrent use; a nil *Logger discards everything.
type Logger struct {
	logger *slog.Logger
	out    *output
}

// output is shared by a logger and all of its children so that closing any
// of them closes the underlying file exactly once.
type output struct {
	mu     sync.Mutex
	writer *RotatingWriter
}

// NewLogger creates a Logger that writes JSON lines to {dir}/debug.log,
// rotating the file according to rotation. level is one of debug, info,
// warn or error in any case; anything else means info. An empty dir logs
// to stderr.
func NewLogger(dir string, level string, rotation RotationConfig) (*Logger, error) {
	var w io.Writer = os.Stderr
	out := &output{}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		rw, err := NewRotatingWriter(filepath.Join(dir, LogFileName), rotation)
		if err != nil {
			return nil, err
		}
		out.writer = rw
		w = rw
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{logger: slog.New(handler), out: out}, nil
}

func parseLevel(level string) slog.Level {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lv
}

// WithUser tags every entry with the signed-in user's ID.
func (l *Logger) WithUser(userID string) *Logger {
	return l.child(slog.String("user_id", userID))
}

// WithTenant tags every entry with the active tenant's ID.
func (l *Logger) WithTenant(tenantID string) *Logger {
	return l.child(slog.String("tenant_id", tenantID))
}

// WithPost tags every entry with a post ID.
func (l *Logger) WithPost(postID string) *Logger {
	return l.child(slog.String("post_id", postID))
}

// WithComponent tags every entry with the emitting component, such as
// "review" or "calendar".
func (l *Logger) WithComponent(name string) *Logger {
	return l.child(slog.String("component", name))
}

// With returns a child Logger carrying alternating key-value pairs. Pairs
// whose key is not a string are dropped.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	attrs := make([]any, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			attrs = append(attrs, slog.Any(key, args[i+1]))
		}
	}
	return l.child(attrs...)
}

func (l *Logger) child(attrs ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{logger: l.logger.With(attrs...), out: l.out}
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if l == nil {
		return
	}
	l.logger.Log(context.Background(), level, msg, args...)
}

// Slog exposes the underlying slog.Logger, attributes included, for code
// that accepts a *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// Close closes the log file. Loggers writing to stderr, and loggers whose
// file was already closed through a parent or child, return nil.
func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.writer == nil {
		return nil
	}
	err := l.out.writer.Close()
	l.out.writer = nil
	return err
}

// NopLogger returns a Logger that discards all output.
func NopLogger() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler), out: &output{}}
}
