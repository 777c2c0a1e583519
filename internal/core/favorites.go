package core

import (
	"context"
	"fmt"

	"smokecheck/pkg/domain"
)

type kvWrite struct {
	key   string
	value string
}

// Favorites returns the ordered favorites ids for kind.
func (s *Store) Favorites(ctx context.Context, kind domain.EntityKind) ([]string, error) {
	if _, err := s.keys.Favorites(kind); err != nil {
		return nil, err
	}
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.favorites[kind]...), nil
}

// SetFavorites replaces the favorites set for kind. Duplicates collapse to
// their first occurrence. Ids removed by an earlier delete are dropped, so a
// stale read-modify-write never resurrects a deleted entity.
func (s *Store) SetFavorites(ctx context.Context, kind domain.EntityKind, ids []string) (err error) {
	ctx, done := s.instrument(ctx, "set_favorites")
	defer func() { done(err) }()
	key, err := s.keys.Favorites(kind)
	if err != nil {
		return err
	}
	s.Initialize(ctx)
	s.mu.Lock()
	next := make([]string, 0, len(ids))
	for _, id := range dedupe(ids) {
		if _, gone := s.tombstones[id]; gone {
			continue
		}
		next = append(next, id)
	}
	s.favorites[kind] = next
	payload, err := EncodeIDs(next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.write(ctx, key, payload)
}

// IsFavorite reports whether id is in the favorites set for kind.
func (s *Store) IsFavorite(ctx context.Context, kind domain.EntityKind, id string) bool {
	ids, err := s.Favorites(ctx, kind)
	if err != nil {
		return false
	}
	for _, fav := range ids {
		if fav == id {
			return true
		}
	}
	return false
}

// pruneFavoritesLocked drops tombstoned ids from every set and returns the
// writes for the sets that changed. Callers hold s.mu.
func (s *Store) pruneFavoritesLocked() ([]kvWrite, error) {
	var writes []kvWrite
	for _, kind := range domain.EntityKinds {
		current := s.favorites[kind]
		kept := make([]string, 0, len(current))
		for _, id := range current {
			if _, gone := s.tombstones[id]; !gone {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(current) {
			continue
		}
		s.favorites[kind] = kept
		key, _ := s.keys.Favorites(kind)
		payload, err := EncodeIDs(kept)
		if err != nil {
			return nil, fmt.Errorf("prune %s favorites: %w", kind, err)
		}
		writes = append(writes, kvWrite{key: key, value: payload})
	}
	return writes, nil
}
