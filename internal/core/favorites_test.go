package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"smokecheck/pkg/domain"
)

func TestSetFavoritesReplacesAndDedupes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	if err := s.SetFavorites(ctx, domain.EntityZone, []string{"z2", "z1", "z2", "", "z3"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Favorites(ctx, domain.EntityZone)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"z2", "z1", "z3"}, got); diff != "" {
		t.Fatalf("favorites (-want +got):\n%s", diff)
	}
	if err := s.SetFavorites(ctx, domain.EntityZone, []string{"z9"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = s.Favorites(ctx, domain.EntityZone)
	if diff := cmp.Diff([]string{"z9"}, got); diff != "" {
		t.Fatalf("full replace expected (-want +got):\n%s", diff)
	}
	if !s.IsFavorite(ctx, domain.EntityZone, "z9") || s.IsFavorite(ctx, domain.EntityZone, "z1") {
		t.Fatalf("IsFavorite mismatch")
	}
	got[0] = "mutated"
	if again, _ := s.Favorites(ctx, domain.EntityZone); again[0] != "z9" {
		t.Fatalf("favorites leaked internal slice")
	}
	// sets are independent per kind and not validated against the tree
	if other, _ := s.Favorites(ctx, domain.EntityShutter); len(other) != 0 {
		t.Fatalf("expected independent sets, got %v", other)
	}
}

func TestFavoritesUnknownKind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	if _, err := s.Favorites(ctx, "floor"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if err := s.SetFavorites(ctx, "floor", []string{"x"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if s.IsFavorite(ctx, "floor", "x") {
		t.Fatalf("unknown kind cannot hold favorites")
	}
}

func TestStaleFavoritesWriteCannotResurrectDeletedIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	f := seed(t, s)
	_ = s.SetFavorites(ctx, domain.EntityShutter, []string{f.shutters[0].ID})

	// a caller read the set before the delete and writes it back afterwards
	stale, _ := s.Favorites(ctx, domain.EntityShutter)
	if _, err := s.DeleteZone(ctx, f.zone.ID); err != nil {
		t.Fatalf("delete zone: %v", err)
	}
	if err := s.SetFavorites(ctx, domain.EntityShutter, append(stale, f.shutters[1].ID, "unrelated")); err != nil {
		t.Fatalf("set favorites: %v", err)
	}
	got, _ := s.Favorites(ctx, domain.EntityShutter)
	if diff := cmp.Diff([]string{"unrelated"}, got); diff != "" {
		t.Fatalf("delete must win (-want +got):\n%s", diff)
	}
}
