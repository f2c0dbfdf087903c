// Package kvstore provides the key-value backends behind the project
// repository: in-memory, a directory of files, SQLite and DuckDB.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Backend stores opaque values under string keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindDuckDB = "duckdb"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Open creates a backend of the given kind rooted in dataDir.
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindFile, "":
		return NewFileBackend(filepath.Join(dataDir, "kv"))
	case KindSQLite:
		return NewSQLiteBackend(filepath.Join(dataDir, "projects.sqlite"))
	case KindDuckDB:
		return NewDuckBackend(filepath.Join(dataDir, "projects.duckdb"))
	}
	return nil, fmt.Errorf("unknown storage backend: %s", kind)
}
