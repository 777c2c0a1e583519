package core

import (
	"context"
	"slices"

	"smokecheck/pkg/domain"
)

// Tree locators. Callers hold s.mu.

func (s *Store) findProject(id string) (pi int, ok bool) {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) findBuilding(id string) (pi, bi int, ok bool) {
	for i := range s.projects {
		for j := range s.projects[i].Buildings {
			if s.projects[i].Buildings[j].ID == id {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

func (s *Store) findZone(id string) (pi, bi, zi int, ok bool) {
	for i := range s.projects {
		for j := range s.projects[i].Buildings {
			zones := s.projects[i].Buildings[j].FunctionalZones
			for k := range zones {
				if zones[k].ID == id {
					return i, j, k, true
				}
			}
		}
	}
	return -1, -1, -1, false
}

func (s *Store) findShutter(id string) (pi, bi, zi, si int, ok bool) {
	for i := range s.projects {
		for j := range s.projects[i].Buildings {
			zones := s.projects[i].Buildings[j].FunctionalZones
			for k := range zones {
				for l := range zones[k].Shutters {
					if zones[k].Shutters[l].ID == id {
						return i, j, k, l, true
					}
				}
			}
		}
	}
	return -1, -1, -1, -1, false
}

// Project returns a copy of the project with id.
func (s *Store) Project(ctx context.Context, id string) (domain.Project, bool) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.findProject(id)
	if !ok {
		return domain.Project{}, false
	}
	return domain.CloneProject(s.projects[pi]), true
}

// Building returns a copy of the building with id.
func (s *Store) Building(ctx context.Context, id string) (domain.Building, bool) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, bi, ok := s.findBuilding(id)
	if !ok {
		return domain.Building{}, false
	}
	return domain.CloneBuilding(s.projects[pi].Buildings[bi]), true
}

// Zone returns a copy of the functional zone with id.
func (s *Store) Zone(ctx context.Context, id string) (domain.FunctionalZone, bool) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, bi, zi, ok := s.findZone(id)
	if !ok {
		return domain.FunctionalZone{}, false
	}
	return domain.CloneZone(s.projects[pi].Buildings[bi].FunctionalZones[zi]), true
}

// Shutter returns a copy of the shutter with id.
func (s *Store) Shutter(ctx context.Context, id string) (domain.Shutter, bool) {
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, bi, zi, si, ok := s.findShutter(id)
	if !ok {
		return domain.Shutter{}, false
	}
	return domain.CloneShutter(s.projects[pi].Buildings[bi].FunctionalZones[zi].Shutters[si]), true
}

// CreateProject appends a new project. Buildings on the input are ignored.
func (s *Store) CreateProject(ctx context.Context, in domain.Project) (out domain.Project, err error) {
	ctx, done := s.instrument(ctx, "create_project")
	defer func() { done(err) }()
	if err := in.Validate(); err != nil {
		return domain.Project{}, err
	}
	_, err = s.mutateTree(ctx, func() bool {
		now := s.now()
		p := domain.CloneProject(in)
		p.ID = s.newID()
		p.CreatedAt, p.UpdatedAt = now, now
		p.Buildings = []domain.Building{}
		s.projects = append(s.projects, p)
		out = domain.CloneProject(p)
		return true
	})
	if err != nil {
		return domain.Project{}, err
	}
	return out, nil
}

// CreateBuilding appends a building to the project. found is false when the
// project does not exist.
func (s *Store) CreateBuilding(ctx context.Context, projectID string, in domain.Building) (out domain.Building, found bool, err error) {
	ctx, done := s.instrument(ctx, "create_building")
	defer func() { done(err) }()
	if err := in.Validate(); err != nil {
		return domain.Building{}, false, err
	}
	found, err = s.mutateTree(ctx, func() bool {
		pi, ok := s.findProject(projectID)
		if !ok {
			return false
		}
		now := s.now()
		b := domain.CloneBuilding(in)
		b.ID = s.newID()
		b.ProjectID = projectID
		b.CreatedAt, b.UpdatedAt = now, now
		b.FunctionalZones = []domain.FunctionalZone{}
		s.projects[pi].Buildings = append(s.projects[pi].Buildings, b)
		out = domain.CloneBuilding(b)
		return true
	})
	if err != nil || !found {
		return domain.Building{}, found, err
	}
	return out, true, nil
}

// CreateZone appends a functional zone to the building.
func (s *Store) CreateZone(ctx context.Context, buildingID string, in domain.FunctionalZone) (out domain.FunctionalZone, found bool, err error) {
	ctx, done := s.instrument(ctx, "create_zone")
	defer func() { done(err) }()
	if err := in.Validate(); err != nil {
		return domain.FunctionalZone{}, false, err
	}
	found, err = s.mutateTree(ctx, func() bool {
		pi, bi, ok := s.findBuilding(buildingID)
		if !ok {
			return false
		}
		now := s.now()
		z := domain.CloneZone(in)
		z.ID = s.newID()
		z.BuildingID = buildingID
		z.CreatedAt, z.UpdatedAt = now, now
		z.Shutters = []domain.Shutter{}
		b := &s.projects[pi].Buildings[bi]
		b.FunctionalZones = append(b.FunctionalZones, z)
		out = domain.CloneZone(z)
		return true
	})
	if err != nil || !found {
		return domain.FunctionalZone{}, found, err
	}
	return out, true, nil
}

// CreateShutter appends a shutter to the zone.
func (s *Store) CreateShutter(ctx context.Context, zoneID string, in domain.Shutter) (out domain.Shutter, found bool, err error) {
	ctx, done := s.instrument(ctx, "create_shutter")
	defer func() { done(err) }()
	if err := in.Validate(); err != nil {
		return domain.Shutter{}, false, err
	}
	found, err = s.mutateTree(ctx, func() bool {
		pi, bi, zi, ok := s.findZone(zoneID)
		if !ok {
			return false
		}
		now := s.now()
		sh := domain.CloneShutter(in)
		sh.ID = s.newID()
		sh.ZoneID = zoneID
		sh.CreatedAt, sh.UpdatedAt = now, now
		z := &s.projects[pi].Buildings[bi].FunctionalZones[zi]
		z.Shutters = append(z.Shutters, sh)
		out = domain.CloneShutter(sh)
		return true
	})
	if err != nil || !found {
		return domain.Shutter{}, found, err
	}
	return out, true, nil
}

// UpdateProject merges patch into the project and bumps its UpdatedAt.
func (s *Store) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (out domain.Project, found bool, err error) {
	ctx, done := s.instrument(ctx, "update_project")
	defer func() { done(err) }()
	found, err = s.mutateTreeValidated(ctx, func() (bool, error) {
		pi, ok := s.findProject(id)
		if !ok {
			return false, nil
		}
		next := patch.Apply(s.projects[pi])
		if err := next.Validate(); err != nil {
			return true, err
		}
		next.UpdatedAt = s.now()
		s.projects[pi] = next
		out = domain.CloneProject(next)
		return true, nil
	})
	if err != nil || !found {
		return domain.Project{}, found, err
	}
	return out, true, nil
}

// UpdateBuilding merges patch into the building.
func (s *Store) UpdateBuilding(ctx context.Context, id string, patch domain.BuildingPatch) (out domain.Building, found bool, err error) {
	ctx, done := s.instrument(ctx, "update_building")
	defer func() { done(err) }()
	found, err = s.mutateTreeValidated(ctx, func() (bool, error) {
		pi, bi, ok := s.findBuilding(id)
		if !ok {
			return false, nil
		}
		next := patch.Apply(s.projects[pi].Buildings[bi])
		if err := next.Validate(); err != nil {
			return true, err
		}
		next.UpdatedAt = s.now()
		s.projects[pi].Buildings[bi] = next
		out = domain.CloneBuilding(next)
		return true, nil
	})
	if err != nil || !found {
		return domain.Building{}, found, err
	}
	return out, true, nil
}

// UpdateZone merges patch into the functional zone.
func (s *Store) UpdateZone(ctx context.Context, id string, patch domain.ZonePatch) (out domain.FunctionalZone, found bool, err error) {
	ctx, done := s.instrument(ctx, "update_zone")
	defer func() { done(err) }()
	found, err = s.mutateTreeValidated(ctx, func() (bool, error) {
		pi, bi, zi, ok := s.findZone(id)
		if !ok {
			return false, nil
		}
		zones := s.projects[pi].Buildings[bi].FunctionalZones
		next := patch.Apply(zones[zi])
		if err := next.Validate(); err != nil {
			return true, err
		}
		next.UpdatedAt = s.now()
		zones[zi] = next
		out = domain.CloneZone(next)
		return true, nil
	})
	if err != nil || !found {
		return domain.FunctionalZone{}, found, err
	}
	return out, true, nil
}

// UpdateShutter merges patch into the shutter.
func (s *Store) UpdateShutter(ctx context.Context, id string, patch domain.ShutterPatch) (out domain.Shutter, found bool, err error) {
	ctx, done := s.instrument(ctx, "update_shutter")
	defer func() { done(err) }()
	found, err = s.mutateTreeValidated(ctx, func() (bool, error) {
		pi, bi, zi, si, ok := s.findShutter(id)
		if !ok {
			return false, nil
		}
		shutters := s.projects[pi].Buildings[bi].FunctionalZones[zi].Shutters
		next := patch.Apply(shutters[si])
		if err := next.Validate(); err != nil {
			return true, err
		}
		next.UpdatedAt = s.now()
		shutters[si] = next
		out = domain.CloneShutter(next)
		return true, nil
	})
	if err != nil || !found {
		return domain.Shutter{}, found, err
	}
	return out, true, nil
}

// mutateTreeValidated is mutateTree for mutations that may reject the
// merged entity; a rejection leaves the tree untouched and unwritten.
func (s *Store) mutateTreeValidated(ctx context.Context, fn func() (bool, error)) (bool, error) {
	var fnErr error
	found, err := s.mutateTree(ctx, func() bool {
		var changed bool
		changed, fnErr = fn()
		return changed && fnErr == nil
	})
	if fnErr != nil {
		return true, fnErr
	}
	return found, err
}

// DeleteProject removes the project and all of its descendants.
func (s *Store) DeleteProject(ctx context.Context, id string) (deleted bool, err error) {
	ctx, done := s.instrument(ctx, "delete_project")
	defer func() { done(err) }()
	return s.deleteNode(ctx, func() map[domain.EntityKind][]string {
		pi, ok := s.findProject(id)
		if !ok {
			return nil
		}
		removed := newRemoval()
		collectProject(removed, s.projects[pi])
		s.projects = slices.Delete(s.projects, pi, pi+1)
		return removed
	})
}

// DeleteBuilding removes the building, its zones and their shutters.
func (s *Store) DeleteBuilding(ctx context.Context, id string) (deleted bool, err error) {
	ctx, done := s.instrument(ctx, "delete_building")
	defer func() { done(err) }()
	return s.deleteNode(ctx, func() map[domain.EntityKind][]string {
		pi, bi, ok := s.findBuilding(id)
		if !ok {
			return nil
		}
		removed := newRemoval()
		p := &s.projects[pi]
		collectBuilding(removed, p.Buildings[bi])
		p.Buildings = slices.Delete(p.Buildings, bi, bi+1)
		return removed
	})
}

// DeleteZone removes the zone and its shutters.
func (s *Store) DeleteZone(ctx context.Context, id string) (deleted bool, err error) {
	ctx, done := s.instrument(ctx, "delete_zone")
	defer func() { done(err) }()
	return s.deleteNode(ctx, func() map[domain.EntityKind][]string {
		pi, bi, zi, ok := s.findZone(id)
		if !ok {
			return nil
		}
		removed := newRemoval()
		b := &s.projects[pi].Buildings[bi]
		collectZone(removed, b.FunctionalZones[zi])
		b.FunctionalZones = slices.Delete(b.FunctionalZones, zi, zi+1)
		return removed
	})
}

// DeleteShutter removes a single shutter.
func (s *Store) DeleteShutter(ctx context.Context, id string) (deleted bool, err error) {
	ctx, done := s.instrument(ctx, "delete_shutter")
	defer func() { done(err) }()
	return s.deleteNode(ctx, func() map[domain.EntityKind][]string {
		pi, bi, zi, si, ok := s.findShutter(id)
		if !ok {
			return nil
		}
		removed := newRemoval()
		z := &s.projects[pi].Buildings[bi].FunctionalZones[zi]
		removed[domain.EntityShutter] = append(removed[domain.EntityShutter], z.Shutters[si].ID)
		z.Shutters = slices.Delete(z.Shutters, si, si+1)
		return removed
	})
}

func newRemoval() map[domain.EntityKind][]string {
	return make(map[domain.EntityKind][]string, len(domain.EntityKinds))
}

func collectProject(removed map[domain.EntityKind][]string, p domain.Project) {
	removed[domain.EntityProject] = append(removed[domain.EntityProject], p.ID)
	for _, b := range p.Buildings {
		collectBuilding(removed, b)
	}
}

func collectBuilding(removed map[domain.EntityKind][]string, b domain.Building) {
	removed[domain.EntityBuilding] = append(removed[domain.EntityBuilding], b.ID)
	for _, z := range b.FunctionalZones {
		collectZone(removed, z)
	}
}

func collectZone(removed map[domain.EntityKind][]string, z domain.FunctionalZone) {
	removed[domain.EntityZone] = append(removed[domain.EntityZone], z.ID)
	for _, sh := range z.Shutters {
		removed[domain.EntityShutter] = append(removed[domain.EntityShutter], sh.ID)
	}
}

// deleteNode applies remove under the guard. The removed ids are pruned
// from every favorites set and tombstoned, then the tree and each changed
// favorites set are written.
func (s *Store) deleteNode(ctx context.Context, remove func() map[domain.EntityKind][]string) (bool, error) {
	s.Initialize(ctx)
	s.mu.Lock()
	removed := remove()
	if removed == nil {
		s.mu.Unlock()
		return false, nil
	}
	for _, ids := range removed {
		for _, id := range ids {
			s.tombstones[id] = struct{}{}
		}
	}
	favWrites, favErr := s.pruneFavoritesLocked()
	payload, err := EncodeProjects(s.projects)
	s.mu.Unlock()
	if err != nil {
		return true, err
	}
	if favErr != nil {
		return true, favErr
	}
	if err := s.write(ctx, s.keys.Projects, payload); err != nil {
		return true, err
	}
	for _, w := range favWrites {
		if err := s.write(ctx, w.key, w.value); err != nil {
			return true, err
		}
	}
	return true, nil
}
