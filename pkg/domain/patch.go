package domain

import "time"

// ProjectPatch carries the project fields an update may change. Nil fields are left untouched.
type ProjectPatch struct {
	Name      *string
	City      *string
	StartDate *time.Time
	EndDate   *time.Time
}

// Apply merges the patch into a copy of p.
func (pp ProjectPatch) Apply(p Project) Project {
	out := p
	if pp.Name != nil {
		out.Name = *pp.Name
	}
	if pp.City != nil {
		out.City = clonePtr(pp.City)
	}
	if pp.StartDate != nil {
		out.StartDate = clonePtr(pp.StartDate)
	}
	if pp.EndDate != nil {
		out.EndDate = clonePtr(pp.EndDate)
	}
	return out
}

// BuildingPatch carries the building fields an update may change.
type BuildingPatch struct {
	Name        *string
	Description *string
}

// Apply merges the patch into a copy of b.
func (bp BuildingPatch) Apply(b Building) Building {
	out := b
	if bp.Name != nil {
		out.Name = *bp.Name
	}
	if bp.Description != nil {
		out.Description = clonePtr(bp.Description)
	}
	return out
}

// ZonePatch carries the zone fields an update may change.
type ZonePatch struct {
	Name        *string
	Description *string
}

// Apply merges the patch into a copy of z.
func (zp ZonePatch) Apply(z FunctionalZone) FunctionalZone {
	out := z
	if zp.Name != nil {
		out.Name = *zp.Name
	}
	if zp.Description != nil {
		out.Description = clonePtr(zp.Description)
	}
	return out
}

// ShutterPatch carries the shutter fields an update may change.
type ShutterPatch struct {
	Name          *string
	Type          *ShutterType
	ReferenceFlow *float64
	MeasuredFlow  *float64
	Remarks       *string
}

// Apply merges the patch into a copy of s.
func (sp ShutterPatch) Apply(s Shutter) Shutter {
	out := s
	if sp.Name != nil {
		out.Name = *sp.Name
	}
	if sp.Type != nil {
		out.Type = *sp.Type
	}
	if sp.ReferenceFlow != nil {
		out.ReferenceFlow = *sp.ReferenceFlow
	}
	if sp.MeasuredFlow != nil {
		out.MeasuredFlow = *sp.MeasuredFlow
	}
	if sp.Remarks != nil {
		out.Remarks = clonePtr(sp.Remarks)
	}
	return out
}

// IsZero reports whether the patch changes nothing.
func (sp ShutterPatch) IsZero() bool {
	return sp.Name == nil && sp.Type == nil && sp.ReferenceFlow == nil && sp.MeasuredFlow == nil && sp.Remarks == nil
}
