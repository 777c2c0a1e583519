// Package core implements the smokecheck persistence engine: a load-once
// in-memory cache of the project tree, favorites sets and quick-calc history
// over a durable key-value store.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	kvcore "smokecheck/internal/kv/core"
	"smokecheck/pkg/domain"
)

// Store owns the cached survey state and its durable backend.
//
// Writes rewrite the whole affected key. The in-memory tree is guarded only
// while it is mutated and encoded; durable writes happen after the guard is
// released, so overlapping writers resolve as last serialize wins.
type Store struct {
	kv   kvcore.Store
	opts options
	keys Keys

	loadMu sync.Mutex
	loaded bool

	mu         sync.Mutex
	projects   []domain.Project
	favorites  map[domain.EntityKind][]string
	tombstones map[string]struct{}
	history    []domain.QuickCalcEntry
}

// NewStore constructs a store over kv. State is read lazily on first use.
func NewStore(kv kvcore.Store, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store{kv: kv, opts: o, keys: newKeys(o.keyPrefix)}
	s.resetLocked()
	return s
}

// Keys returns the durable keys used by the store.
func (s *Store) Keys() Keys { return s.keys }

func (s *Store) resetLocked() {
	s.projects = []domain.Project{}
	s.favorites = make(map[domain.EntityKind][]string, len(domain.EntityKinds))
	for _, kind := range domain.EntityKinds {
		s.favorites[kind] = []string{}
	}
	s.tombstones = make(map[string]struct{})
	s.history = []domain.QuickCalcEntry{}
}

func (s *Store) now() time.Time { return truncate(s.opts.clock.Now()) }

func (s *Store) newID() string { return s.opts.ids.Generate() }

// instrument opens a span and returns the completion hook that records
// metrics and logs the outcome.
func (s *Store) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.opts.tracer.Start(ctx, op)
	return ctx, func(err error) {
		span.End(err)
		s.opts.metrics.Observe(ctx, op, err == nil, time.Since(start))
		if err != nil {
			s.opts.logger.Error("store operation failed", "operation", op, "error", err)
			return
		}
		s.opts.logger.Debug("store operation", "operation", op)
	}
}

// Initialize loads the tree, favorites and history exactly once per store
// lifetime. Absent keys and unreadable or malformed values leave the
// corresponding collection empty; the failure is logged, never returned.
func (s *Store) Initialize(ctx context.Context) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded {
		return
	}
	ctx, done := s.instrument(ctx, "initialize")
	defer done(nil)

	now := s.now()
	projects := []domain.Project{}
	if raw, ok := s.read(ctx, s.keys.Projects); ok {
		if decoded, err := DecodeProjects(raw, now); err != nil {
			s.opts.logger.Warn("discarding malformed projects", "key", s.keys.Projects, "error", err)
		} else {
			projects = decoded
		}
	}
	favorites := make(map[domain.EntityKind][]string, len(domain.EntityKinds))
	for _, kind := range domain.EntityKinds {
		favorites[kind] = []string{}
		key, _ := s.keys.Favorites(kind)
		raw, ok := s.read(ctx, key)
		if !ok {
			continue
		}
		ids, err := DecodeIDs(raw)
		if err != nil {
			s.opts.logger.Warn("discarding malformed favorites", "key", key, "error", err)
			continue
		}
		favorites[kind] = ids
	}
	history := []domain.QuickCalcEntry{}
	if raw, ok := s.read(ctx, s.keys.History); ok {
		if decoded, err := DecodeHistory(raw, now); err != nil {
			s.opts.logger.Warn("discarding malformed history", "key", s.keys.History, "error", err)
		} else {
			history = decoded
		}
	}

	s.mu.Lock()
	s.projects = projects
	s.favorites = favorites
	s.history = history
	s.mu.Unlock()
	s.loaded = true
	s.opts.logger.Info("store loaded", "driver", string(s.kv.Driver()), "projects", len(projects), "history", len(history))
}

// Loaded reports whether durable state has been read.
func (s *Store) Loaded() bool {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loaded
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.opts.logger.Warn("read failed, using empty value", "key", key, "error", err)
		return "", false
	}
	return raw, ok
}

func (s *Store) write(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// mutateTree runs fn against the loaded tree under the guard. When fn
// reports a change the whole tree is encoded and written.
func (s *Store) mutateTree(ctx context.Context, fn func() bool) (bool, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false, nil
	}
	payload, err := EncodeProjects(s.projects)
	s.mu.Unlock()
	if err != nil {
		return true, err
	}
	return true, s.write(ctx, s.keys.Projects, payload)
}

// Projects returns a deep copy of the whole tree.
func (s *Store) Projects(ctx context.Context) []domain.Project {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneProjects(s.projects)
}

// ClearAllData removes every durable key and returns the store to its
// pristine, not yet loaded state.
func (s *Store) ClearAllData(ctx context.Context) (err error) {
	ctx, done := s.instrument(ctx, "clear_all_data")
	defer func() { done(err) }()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if err := s.kv.MultiRemove(ctx, s.keys.All()); err != nil {
		return fmt.Errorf("clear all data: %w", err)
	}
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.loaded = false
	s.opts.logger.Info("store cleared")
	return nil
}

// StorageInfo is an advisory summary of the cached state.
type StorageInfo struct {
	Driver        string `json:"driver"`
	ProjectCount  int    `json:"projectCount"`
	BuildingCount int    `json:"buildingCount"`
	ZoneCount     int    `json:"zoneCount"`
	ShutterCount  int    `json:"shutterCount"`
	FavoriteCount int    `json:"favoriteCount"`
	HistoryCount  int    `json:"historyCount"`
	// SizeBytes is the length of the serialized tree.
	SizeBytes int `json:"sizeBytes"`
}

// StorageInfo computes counts by traversal.
func (s *Store) StorageInfo(ctx context.Context) (StorageInfo, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	info := StorageInfo{Driver: string(s.kv.Driver()), ProjectCount: len(s.projects), HistoryCount: len(s.history)}
	for _, p := range s.projects {
		info.BuildingCount += len(p.Buildings)
		for _, b := range p.Buildings {
			info.ZoneCount += len(b.FunctionalZones)
			for _, z := range b.FunctionalZones {
				info.ShutterCount += len(z.Shutters)
			}
		}
	}
	for _, ids := range s.favorites {
		info.FavoriteCount += len(ids)
	}
	payload, err := EncodeProjects(s.projects)
	if err != nil {
		return info, err
	}
	info.SizeBytes = len(payload)
	return info, nil
}
