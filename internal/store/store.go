// Package store keeps small pieces of client-local state that must survive
// restarts, such as the last selected tenant.
//
// Two backends are available: [FileStore] writes one file per key and
// [SQLiteStore] keeps every key in a single SQLite database. [Open] picks
// one based on configuration.
package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/somesimplify/somectl/internal/config"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// SQLiteFileName is the database file used by the sqlite backend.
const SQLiteFileName = "state.db"

// Store is a durable key/value store. Load returns errors.ErrNotFound for a
// key that was never saved or has been deleted.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open creates the store described by cfg.
func Open(cfg config.StateConfig) (Store, error) {
	dir := cfg.ResolvedDir()
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(filepath.Join(dir, "kv"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, SQLiteFileName))
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
