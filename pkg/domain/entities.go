// Package domain defines the survey entities, value types, and patch helpers
// used by smokecheck.
package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// EntityKind identifies the type of record stored in the survey tree.
type EntityKind string

// Supported entity kinds used for favorites buckets and not-found reporting.
const (
	// EntityProject identifies a survey project (the tree root).
	EntityProject EntityKind = "project"
	// EntityBuilding identifies a building owned by a project.
	EntityBuilding EntityKind = "building"
	// EntityZone identifies a functional zone owned by a building.
	EntityZone EntityKind = "zone"
	// EntityShutter identifies a smoke extraction shutter owned by a zone.
	EntityShutter EntityKind = "shutter"
)

// EntityKinds lists every kind in containment order.
var EntityKinds = []EntityKind{EntityProject, EntityBuilding, EntityZone, EntityShutter}

// ParseEntityKind resolves user input (singular or plural, any case) to a kind.
func ParseEntityKind(raw string) (EntityKind, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimSuffix(v, "s")
	switch v {
	case "project":
		return EntityProject, nil
	case "building":
		return EntityBuilding, nil
	case "zone", "functionalzone", "functional_zone":
		return EntityZone, nil
	case "shutter":
		return EntityShutter, nil
	}
	return "", fmt.Errorf("%w: unknown entity kind %q", ErrInvalid, raw)
}

// ShutterType distinguishes high (extraction) from low (supply) shutters.
type ShutterType string

// Canonical shutter types.
const (
	ShutterHigh ShutterType = "high"
	ShutterLow  ShutterType = "low"
)

// ParseShutterType accepts "high"/"low" in any case.
func ParseShutterType(raw string) (ShutterType, error) {
	switch ShutterType(strings.ToLower(strings.TrimSpace(raw))) {
	case ShutterHigh:
		return ShutterHigh, nil
	case ShutterLow:
		return ShutterLow, nil
	}
	return "", fmt.Errorf("%w: shutter type %q must be high or low", ErrInvalid, raw)
}

// ErrInvalid marks entity payloads rejected before they reach the tree.
var ErrInvalid = errors.New("invalid entity")

// Base contains common fields for all survey records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project is the root of a survey and exclusively owns its buildings.
// EndDate after StartDate is left to callers.
type Project struct {
	Base
	Name      string     `json:"name"`
	City      *string    `json:"city,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Buildings []Building `json:"buildings"`
}

// Building belongs to exactly one project. ProjectID is a lookup aid only.
type Building struct {
	Base
	ProjectID       string           `json:"projectId"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	FunctionalZones []FunctionalZone `json:"functionalZones"`
}

// FunctionalZone groups the shutters of one smoke control area of a building.
type FunctionalZone struct {
	Base
	BuildingID  string    `json:"buildingId"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Shutters    []Shutter `json:"shutters"`
}

// Shutter is the measured leaf entity.
type Shutter struct {
	Base
	ZoneID        string      `json:"zoneId"`
	Name          string      `json:"name"`
	Type          ShutterType `json:"type"`
	ReferenceFlow float64     `json:"referenceFlow"`
	MeasuredFlow  float64     `json:"measuredFlow"`
	Remarks       *string     `json:"remarks,omitempty"`
}

// Validate checks the project payload.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project name required", ErrInvalid)
	}
	return nil
}

// Validate checks the building payload.
func (b Building) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: building name required", ErrInvalid)
	}
	return nil
}

// Validate checks the zone payload.
func (z FunctionalZone) Validate() error {
	if strings.TrimSpace(z.Name) == "" {
		return fmt.Errorf("%w: zone name required", ErrInvalid)
	}
	return nil
}

// Validate checks the shutter payload: known type and finite, non-negative flows.
func (s Shutter) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: shutter name required", ErrInvalid)
	}
	if s.Type != ShutterHigh && s.Type != ShutterLow {
		return fmt.Errorf("%w: shutter type %q must be high or low", ErrInvalid, s.Type)
	}
	if err := validFlow("reference flow", s.ReferenceFlow); err != nil {
		return err
	}
	return validFlow("measured flow", s.MeasuredFlow)
}

func validFlow(label string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite value >= 0, got %v", ErrInvalid, label, v)
	}
	return nil
}

// ShutterCount returns the number of shutters below the project.
func (p Project) ShutterCount() int {
	n := 0
	for _, b := range p.Buildings {
		for _, z := range b.FunctionalZones {
			n += len(z.Shutters)
		}
	}
	return n
}
