package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseEntityKind(t *testing.T) {
	cases := map[string]EntityKind{
		"project":         EntityProject,
		"Projects":        EntityProject,
		" building ":      EntityBuilding,
		"zones":           EntityZone,
		"functional_zone": EntityZone,
		"SHUTTER":         EntityShutter,
	}
	for raw, want := range cases {
		got, err := ParseEntityKind(raw)
		if err != nil || got != want {
			t.Fatalf("ParseEntityKind(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := ParseEntityKind("floor"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseShutterType(t *testing.T) {
	if got, err := ParseShutterType(" High "); err != nil || got != ShutterHigh {
		t.Fatalf("unexpected %q %v", got, err)
	}
	if got, err := ParseShutterType("low"); err != nil || got != ShutterLow {
		t.Fatalf("unexpected %q %v", got, err)
	}
	if _, err := ParseShutterType("middle"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Shutter{Name: "VH01", Type: ShutterHigh, ReferenceFlow: 5000, MeasuredFlow: 4900}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid shutter rejected: %v", err)
	}
	zeroFlows := valid
	zeroFlows.ReferenceFlow, zeroFlows.MeasuredFlow = 0, 0
	if err := zeroFlows.Validate(); err != nil {
		t.Fatalf("zero flows must be storable: %v", err)
	}

	invalid := []interface{ Validate() error }{
		Project{Name: " "},
		Building{},
		FunctionalZone{Name: "\t"},
		Shutter{Type: ShutterLow},
		Shutter{Name: "x", Type: "side"},
		Shutter{Name: "x", Type: ShutterLow, ReferenceFlow: -1},
		Shutter{Name: "x", Type: ShutterLow, MeasuredFlow: math.NaN()},
		Shutter{Name: "x", Type: ShutterLow, ReferenceFlow: math.Inf(1)},
	}
	for i, v := range invalid {
		if err := v.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}

func TestPatchesOnlyTouchSetFields(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p := Project{Base: Base{ID: "p1"}, Name: "Campus", City: Ptr("Lyon")}
	got := ProjectPatch{StartDate: &start}.Apply(p)
	want := Project{Base: Base{ID: "p1"}, Name: "Campus", City: Ptr("Lyon"), StartDate: &start}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("project patch mismatch (-want +got):\n%s", diff)
	}
	start = start.AddDate(1, 0, 0)
	if got.StartDate.Year() != 2024 {
		t.Fatalf("patch must copy pointer values")
	}

	b := BuildingPatch{Description: Ptr("")}.Apply(Building{Name: "Hall A"})
	if b.Name != "Hall A" || b.Description == nil || *b.Description != "" {
		t.Fatalf("unexpected building %+v", b)
	}
	z := ZonePatch{Name: Ptr("Stairwell 2")}.Apply(FunctionalZone{Name: "Stairwell 1", Description: Ptr("north")})
	if z.Name != "Stairwell 2" || *z.Description != "north" {
		t.Fatalf("unexpected zone %+v", z)
	}

	sh := Shutter{Name: "VB01", Type: ShutterLow, ReferenceFlow: 3000, MeasuredFlow: 3450}
	if !(ShutterPatch{}).IsZero() {
		t.Fatalf("empty patch must be zero")
	}
	patched := ShutterPatch{MeasuredFlow: Ptr(3100.0), Type: Ptr(ShutterHigh)}.Apply(sh)
	if patched.MeasuredFlow != 3100 || patched.ReferenceFlow != 3000 || patched.Type != ShutterHigh || patched.Name != "VB01" {
		t.Fatalf("unexpected shutter %+v", patched)
	}
}

func TestCloneProjectIsDeep(t *testing.T) {
	orig := Project{
		Name: "Campus",
		City: Ptr("Lyon"),
		Buildings: []Building{{
			Name: "Hall A",
			FunctionalZones: []FunctionalZone{{
				Name:     "Stairwell 1",
				Shutters: []Shutter{{Name: "VH01", Remarks: Ptr("ok")}},
			}},
		}},
	}
	cp := CloneProject(orig)
	if diff := cmp.Diff(orig, cp); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}
	*cp.City = "Paris"
	cp.Buildings[0].Name = "Hall B"
	cp.Buildings[0].FunctionalZones[0].Shutters[0].Name = "VH02"
	*cp.Buildings[0].FunctionalZones[0].Shutters[0].Remarks = "changed"
	if *orig.City != "Lyon" || orig.Buildings[0].Name != "Hall A" {
		t.Fatalf("clone shares project state")
	}
	sh := orig.Buildings[0].FunctionalZones[0].Shutters[0]
	if sh.Name != "VH01" || *sh.Remarks != "ok" {
		t.Fatalf("clone shares shutter state")
	}
	if orig.ShutterCount() != 1 {
		t.Fatalf("unexpected shutter count %d", orig.ShutterCount())
	}
	if got := CloneProjects(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
