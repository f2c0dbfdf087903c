package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// FileBackend stores each key as a file in a directory.
type FileBackend struct {
	mu  sync.RWMutex
	dir string
}

// NewFileBackend creates a FileBackend, creating dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Get reads the value stored under key.
func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Put writes the value through a temp file and a rename so readers never see
// a partial write.
func (f *FileBackend) Put(_ context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := filepath.Join(f.dir, fmt.Sprintf(".%s.%s.tmp", key, uuid.New().String()[:8]))
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", key, err)
	}
	return nil
}

// Delete removes the key. Missing keys are not an error.
func (f *FileBackend) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
