// Package memory implements an in-memory key-value Store for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"smokecheck/internal/kv/core"
)

// Store implements core.Store backed by process memory.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns an empty in-memory store.
func New() *Store { return &Store{values: make(map[string]string)} }

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Get returns the value at key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value at key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// MultiRemove deletes the listed keys.
func (s *Store) MultiRemove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Keys lists stored keys in ascending order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
