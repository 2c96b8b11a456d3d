package state

import (
	"context"
	"sync"
	"time"
)

// Mock is an in-memory test double for Manager.
type Mock struct {
	mu      sync.Mutex
	records map[string]Resume
	saves   int
	closed  bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{records: make(map[string]Resume)}
}

func (m *Mock) GetResume(_ context.Context, url string) (*Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[url]
	if !ok {
		return nil, nil //nolint:nilnil // matches Manager
	}
	return &r, nil
}

func (m *Mock) SaveResume(r Resume) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.URL] = r
	m.saves++
}

func (m *Mock) Forget(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, url)
	return nil
}

func (m *Mock) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for url, r := range m.records {
		if r.UpdatedAt.Before(cutoff) {
			delete(m.records, url)
			n++
		}
	}
	return n, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Saves returns how many times SaveResume was called.
func (m *Mock) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Interface = (*Mock)(nil)
