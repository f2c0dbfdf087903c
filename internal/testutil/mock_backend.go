// mock_backend.go - Mock key-value backend for testing
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/design-review/backend/internal/kvstore"
)

// MockBackend implements kvstore.Backend in memory and can be told to fail.
type MockBackend struct {
	data map[string][]byte
	mu   sync.RWMutex

	// GetErr and PutErr, when set, are returned by every Get or Put.
	GetErr error
	PutErr error

	gets int
	puts int
}

// NewMockBackend creates an empty mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{data: make(map[string][]byte)}
}

func (m *MockBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kvstore.ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (m *MockBackend) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockBackend) Close() error { return nil }

// Ensure MockBackend implements kvstore.Backend
var _ kvstore.Backend = (*MockBackend)(nil)

// Test Helper Methods

// SetRaw stores a value without going through Put
func (m *MockBackend) SetRaw(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Raw returns the stored value for key
func (m *MockBackend) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Calls returns how many Get and Put calls were made
func (m *MockBackend) Calls() (gets, puts int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets, m.puts
}
