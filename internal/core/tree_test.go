package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"smokecheck/pkg/domain"
)

func TestCreateAssignsIdentityAndEmptyChildren(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	p, err := s.CreateProject(ctx, domain.Project{
		Name:      "Campus",
		Buildings: []domain.Building{{Name: "smuggled"}},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.ID != "id-1" || p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("unexpected identity %+v", p.Base)
	}
	if p.Buildings == nil || len(p.Buildings) != 0 {
		t.Fatalf("expected empty non-nil buildings, got %v", p.Buildings)
	}
	b, ok, err := s.CreateBuilding(ctx, p.ID, domain.Building{Name: "Hall", ProjectID: "ignored"})
	if err != nil || !ok {
		t.Fatalf("create building ok=%v err=%v", ok, err)
	}
	if b.ProjectID != p.ID || b.FunctionalZones == nil {
		t.Fatalf("unexpected building %+v", b)
	}
	got, _ := s.Project(ctx, p.ID)
	if len(got.Buildings) != 1 || got.Buildings[0].ID != b.ID {
		t.Fatalf("building not appended to parent: %+v", got)
	}
}

func TestCreateUnderMissingParentIsNotFound(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	if _, ok, err := s.CreateBuilding(ctx, "nope", domain.Building{Name: "B"}); ok || err != nil {
		t.Fatalf("building: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.CreateZone(ctx, "nope", domain.FunctionalZone{Name: "Z"}); ok || err != nil {
		t.Fatalf("zone: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.CreateShutter(ctx, "nope", domain.Shutter{Name: "S", Type: domain.ShutterHigh}); ok || err != nil {
		t.Fatalf("shutter: ok=%v err=%v", ok, err)
	}
	if writes := kv.setKeys(); len(writes) != 0 {
		t.Fatalf("expected no writes, got %v", writes)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	f := seed(t, s)
	if _, err := s.CreateProject(ctx, domain.Project{Name: "  "}); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for blank project, got %v", err)
	}
	if _, _, err := s.CreateShutter(ctx, f.zone.ID, domain.Shutter{Name: "S", Type: "medium"}); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad type, got %v", err)
	}
	if _, _, err := s.CreateShutter(ctx, f.zone.ID, domain.Shutter{Name: "S", Type: domain.ShutterLow, ReferenceFlow: -5}); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for negative flow, got %v", err)
	}
	if z, _ := s.Zone(ctx, f.zone.ID); len(z.Shutters) != 2 {
		t.Fatalf("invalid shutters must not be stored, got %d", len(z.Shutters))
	}
}

func TestUpdateMergesAndBumpsOnlyTarget(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	f := seed(t, s)
	before, _ := s.Project(ctx, f.project.ID)

	measured := 4100.0
	updated, ok, err := s.UpdateShutter(ctx, f.shutters[0].ID, domain.ShutterPatch{MeasuredFlow: &measured, Remarks: domain.Ptr("re-measured")})
	if err != nil || !ok {
		t.Fatalf("update shutter ok=%v err=%v", ok, err)
	}
	if updated.ID != f.shutters[0].ID || !updated.CreatedAt.Equal(f.shutters[0].CreatedAt) || updated.ZoneID != f.zone.ID {
		t.Fatalf("identity changed: %+v", updated)
	}
	if updated.Name != "VH01" || updated.MeasuredFlow != 4100 || *updated.Remarks != "re-measured" {
		t.Fatalf("patch not merged: %+v", updated)
	}
	if !updated.UpdatedAt.After(f.shutters[0].UpdatedAt) {
		t.Fatalf("expected UpdatedAt bump")
	}

	after, _ := s.Project(ctx, f.project.ID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) || !after.Buildings[0].UpdatedAt.Equal(before.Buildings[0].UpdatedAt) {
		t.Fatalf("ancestors must keep their UpdatedAt")
	}
	sibling := after.Buildings[0].FunctionalZones[0].Shutters[1]
	if diff := cmp.Diff(f.shutters[1], sibling); diff != "" {
		t.Fatalf("sibling changed (-want +got):\n%s", diff)
	}

	p, ok, err := s.UpdateProject(ctx, f.project.ID, domain.ProjectPatch{Name: domain.Ptr("Campus North")})
	if err != nil || !ok || p.Name != "Campus North" || *p.City != "Lyon" || len(p.Buildings) != 1 {
		t.Fatalf("update project: %+v ok=%v err=%v", p, ok, err)
	}
	b, ok, err := s.UpdateBuilding(ctx, f.building.ID, domain.BuildingPatch{Description: domain.Ptr("east wing")})
	if err != nil || !ok || *b.Description != "east wing" || b.Name != "Hall A" {
		t.Fatalf("update building: %+v ok=%v err=%v", b, ok, err)
	}
	z, ok, err := s.UpdateZone(ctx, f.zone.ID, domain.ZonePatch{Name: domain.Ptr("Stairwell 2")})
	if err != nil || !ok || z.Name != "Stairwell 2" || len(z.Shutters) != 2 {
		t.Fatalf("update zone: %+v ok=%v err=%v", z, ok, err)
	}
}

func TestUpdateMissingOrInvalid(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	f := seed(t, s)
	writes := len(kv.setKeys())

	if _, ok, err := s.UpdateProject(ctx, "missing", domain.ProjectPatch{}); ok || err != nil {
		t.Fatalf("project: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.UpdateBuilding(ctx, "missing", domain.BuildingPatch{}); ok || err != nil {
		t.Fatalf("building: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.UpdateZone(ctx, "missing", domain.ZonePatch{}); ok || err != nil {
		t.Fatalf("zone: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.UpdateShutter(ctx, "missing", domain.ShutterPatch{}); ok || err != nil {
		t.Fatalf("shutter: ok=%v err=%v", ok, err)
	}
	bad := domain.ShutterType("sideways")
	if _, ok, err := s.UpdateShutter(ctx, f.shutters[0].ID, domain.ShutterPatch{Type: &bad}); !ok || !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected validation failure, ok=%v err=%v", ok, err)
	}
	if sh, _ := s.Shutter(ctx, f.shutters[0].ID); sh.Type != domain.ShutterHigh {
		t.Fatalf("rejected patch must not apply, got %s", sh.Type)
	}
	if len(kv.setKeys()) != writes {
		t.Fatalf("expected no writes for missing or rejected updates")
	}
}

func TestDeleteBuildingCascadesToTreeAndFavorites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	f := seed(t, s)
	other, _, _ := s.CreateBuilding(ctx, f.project.ID, domain.Building{Name: "Hall B"})

	mustSet := func(kind domain.EntityKind, ids ...string) {
		t.Helper()
		if err := s.SetFavorites(ctx, kind, ids); err != nil {
			t.Fatalf("set favorites %s: %v", kind, err)
		}
	}
	mustSet(domain.EntityProject, f.project.ID)
	mustSet(domain.EntityBuilding, f.building.ID, other.ID)
	mustSet(domain.EntityZone, f.zone.ID)
	mustSet(domain.EntityShutter, f.shutters[1].ID, f.shutters[0].ID)

	ok, err := s.DeleteBuilding(ctx, f.building.ID)
	if err != nil || !ok {
		t.Fatalf("delete building ok=%v err=%v", ok, err)
	}
	if _, found := s.Building(ctx, f.building.ID); found {
		t.Fatalf("building still present")
	}
	if _, found := s.Zone(ctx, f.zone.ID); found {
		t.Fatalf("zone still present")
	}
	for _, sh := range f.shutters {
		if _, found := s.Shutter(ctx, sh.ID); found {
			t.Fatalf("shutter %s still present", sh.ID)
		}
	}
	want := map[domain.EntityKind][]string{
		domain.EntityProject:  {f.project.ID},
		domain.EntityBuilding: {other.ID},
		domain.EntityZone:     {},
		domain.EntityShutter:  {},
	}
	for kind, ids := range want {
		got, _ := s.Favorites(ctx, kind)
		if diff := cmp.Diff(ids, got); diff != "" {
			t.Fatalf("%s favorites (-want +got):\n%s", kind, diff)
		}
	}

	// pruned favorites are durable
	reopened := NewStore(s.kv)
	if got, _ := reopened.Favorites(ctx, domain.EntityShutter); len(got) != 0 {
		t.Fatalf("expected persisted prune, got %v", got)
	}
}

func TestDeleteProjectRemovesAllDescendants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	f := seed(t, s)
	keep, _ := s.CreateProject(ctx, domain.Project{Name: "Keep"})
	_ = s.SetFavorites(ctx, domain.EntityShutter, []string{f.shutters[0].ID})

	ok, err := s.DeleteProject(ctx, f.project.ID)
	if err != nil || !ok {
		t.Fatalf("delete project ok=%v err=%v", ok, err)
	}
	projects := s.Projects(ctx)
	if len(projects) != 1 || projects[0].ID != keep.ID {
		t.Fatalf("unexpected remaining projects %+v", projects)
	}
	if _, found := s.Shutter(ctx, f.shutters[1].ID); found {
		t.Fatalf("descendant shutter survived")
	}
	if favs, _ := s.Favorites(ctx, domain.EntityShutter); len(favs) != 0 {
		t.Fatalf("expected shutter favorites pruned, got %v", favs)
	}
}

func TestDeleteZoneAndShutter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newRecordingKV())
	f := seed(t, s)
	ok, err := s.DeleteShutter(ctx, f.shutters[0].ID)
	if err != nil || !ok {
		t.Fatalf("delete shutter ok=%v err=%v", ok, err)
	}
	z, _ := s.Zone(ctx, f.zone.ID)
	if len(z.Shutters) != 1 || z.Shutters[0].ID != f.shutters[1].ID {
		t.Fatalf("unexpected shutters after delete %+v", z.Shutters)
	}
	ok, err = s.DeleteZone(ctx, f.zone.ID)
	if err != nil || !ok {
		t.Fatalf("delete zone ok=%v err=%v", ok, err)
	}
	b, _ := s.Building(ctx, f.building.ID)
	if len(b.FunctionalZones) != 0 {
		t.Fatalf("zone survived delete")
	}
}

func TestDeleteNonexistentIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	seed(t, s)
	before := s.Projects(ctx)
	writes := len(kv.setKeys())

	for name, del := range map[string]func(context.Context, string) (bool, error){
		"project":  s.DeleteProject,
		"building": s.DeleteBuilding,
		"zone":     s.DeleteZone,
		"shutter":  s.DeleteShutter,
	} {
		ok, err := del(ctx, "does-not-exist")
		if ok || err != nil {
			t.Fatalf("%s: ok=%v err=%v", name, ok, err)
		}
	}
	if diff := cmp.Diff(before, s.Projects(ctx)); diff != "" {
		t.Fatalf("state changed (-before +after):\n%s", diff)
	}
	if len(kv.setKeys()) != writes {
		t.Fatalf("expected no writes")
	}
}
