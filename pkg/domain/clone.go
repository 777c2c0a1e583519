package domain

// CloneProject deep-copies a project and its whole subtree.
func CloneProject(p Project) Project {
	cp := p
	cp.City = clonePtr(p.City)
	cp.StartDate = clonePtr(p.StartDate)
	cp.EndDate = clonePtr(p.EndDate)
	cp.Buildings = make([]Building, len(p.Buildings))
	for i, b := range p.Buildings {
		cp.Buildings[i] = CloneBuilding(b)
	}
	return cp
}

// CloneBuilding deep-copies a building and its zones.
func CloneBuilding(b Building) Building {
	cp := b
	cp.Description = clonePtr(b.Description)
	cp.FunctionalZones = make([]FunctionalZone, len(b.FunctionalZones))
	for i, z := range b.FunctionalZones {
		cp.FunctionalZones[i] = CloneZone(z)
	}
	return cp
}

// CloneZone deep-copies a zone and its shutters.
func CloneZone(z FunctionalZone) FunctionalZone {
	cp := z
	cp.Description = clonePtr(z.Description)
	cp.Shutters = make([]Shutter, len(z.Shutters))
	for i, s := range z.Shutters {
		cp.Shutters[i] = CloneShutter(s)
	}
	return cp
}

// CloneShutter copies a shutter including its optional remarks.
func CloneShutter(s Shutter) Shutter {
	cp := s
	cp.Remarks = clonePtr(s.Remarks)
	return cp
}

// CloneProjects deep-copies a project list. A nil input yields an empty slice.
func CloneProjects(in []Project) []Project {
	out := make([]Project, len(in))
	for i, p := range in {
		out[i] = CloneProject(p)
	}
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// Ptr returns a pointer to v; handy for optional fields and patches.
func Ptr[T any](v T) *T { return &v }
