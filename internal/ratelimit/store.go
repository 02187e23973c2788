package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/lodboard/internal/store"
)

// MemoryStore keeps windows in a map. State is lost on restart and is not
// shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Window, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key]
	return w, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, w Window) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[key] = w
	return nil
}

// Prune drops windows that started before cutoff.
func (m *MemoryStore) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, w := range m.windows {
		if w.Start.Before(cutoff) {
			delete(m.windows, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// SQLStore keeps windows in the rate_limit_windows table so that every
// instance pointed at the same database sees the same counters.
type SQLStore struct {
	repo store.RateLimitRepo
}

// NewSQLStore adapts a store.RateLimitRepo.
func NewSQLStore(repo store.RateLimitRepo) *SQLStore {
	return &SQLStore{repo: repo}
}

func (s *SQLStore) Get(ctx context.Context, key string) (Window, bool, error) {
	w, err := s.repo.GetWindow(ctx, key)
	if err != nil || w == nil {
		return Window{}, false, err
	}
	return Window{Start: w.Start, Count: w.Count}, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, w Window) error {
	return s.repo.PutWindow(ctx, store.RateLimitWindow{Key: key, Start: w.Start, Count: w.Count})
}

// Prune deletes windows that started before cutoff.
func (s *SQLStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.PruneWindows(ctx, cutoff)
}
