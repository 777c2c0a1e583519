// Package compliance classifies measured smoke extraction flows against their
// reference flow using the regulatory deviation thresholds.
package compliance

import (
	"math"

	"smokecheck/pkg/domain"
)

// Status is the compliance tier of a measurement.
type Status string

// Compliance tiers, from strictest to loosest, plus the invalid marker.
const (
	StatusCompliant    Status = "compliant"
	StatusAcceptable   Status = "acceptable"
	StatusNonCompliant Status = "non_compliant"
	StatusInvalid      Status = "invalid"
)

// Tier limits on |deviation|, in percent. Limits are inclusive.
const (
	CompliantLimit  = 10.0
	AcceptableLimit = 20.0
)

// boundaryTolerance absorbs float rounding at the tier limits, in percentage points.
const boundaryTolerance = 1e-9

// Display colors per tier.
const (
	ColorCompliant    = "#16A34A"
	ColorAcceptable   = "#F59E0B"
	ColorNonCompliant = "#DC2626"
	ColorInvalid      = "#6B7280"
)

// Result is the outcome of a classification.
type Result struct {
	Deviation float64 `json:"deviation"`
	Status    Status  `json:"status"`
	Label     string  `json:"label"`
	Color     string  `json:"color"`
	Valid     bool    `json:"valid"`
}

var invalidResult = Result{Status: StatusInvalid, Label: "Invalid", Color: ColorInvalid}

// Deviation returns the signed percentage difference of measured against
// reference. ok is false when the deviation is undefined.
func Deviation(reference, measured float64) (dev float64, ok bool) {
	if !finite(reference) || !finite(measured) || reference <= 0 {
		return 0, false
	}
	dev = (measured - reference) / reference * 100
	if !finite(dev) {
		return 0, false
	}
	return dev, true
}

// Classify computes the deviation and its tier. A non-positive reference or a
// non-finite input yields StatusInvalid, never NaN or Inf.
func Classify(reference, measured float64) Result {
	dev, ok := Deviation(reference, measured)
	if !ok {
		return invalidResult
	}
	status := StatusFor(dev)
	return Result{
		Deviation: dev,
		Status:    status,
		Label:     status.Label(),
		Color:     status.Color(),
		Valid:     true,
	}
}

// ClassifyShutter classifies the shutter's recorded flows.
func ClassifyShutter(s domain.Shutter) Result {
	return Classify(s.ReferenceFlow, s.MeasuredFlow)
}

// StatusFor maps a deviation to its tier. Limits belong to the stricter tier
// and are compared with a tolerance of boundaryTolerance percentage points.
func StatusFor(deviation float64) Status {
	if !finite(deviation) {
		return StatusInvalid
	}
	abs := math.Abs(deviation)
	switch {
	case abs <= CompliantLimit+boundaryTolerance:
		return StatusCompliant
	case abs <= AcceptableLimit+boundaryTolerance:
		return StatusAcceptable
	default:
		return StatusNonCompliant
	}
}

// Label returns the display label for the tier.
func (s Status) Label() string {
	switch s {
	case StatusCompliant:
		return "Compliant"
	case StatusAcceptable:
		return "Acceptable"
	case StatusNonCompliant:
		return "Non-compliant"
	default:
		return "Invalid"
	}
}

// Color returns the display color for the tier.
func (s Status) Color() string {
	switch s {
	case StatusCompliant:
		return ColorCompliant
	case StatusAcceptable:
		return ColorAcceptable
	case StatusNonCompliant:
		return ColorNonCompliant
	default:
		return ColorInvalid
	}
}

// NewQuickCalcEntry builds a history entry from an ad-hoc classification.
// The store assigns the id and timestamp when the entry is added.
func NewQuickCalcEntry(reference, measured float64, shutterType *domain.ShutterType) domain.QuickCalcEntry {
	res := Classify(reference, measured)
	return domain.QuickCalcEntry{
		ReferenceFlow: reference,
		MeasuredFlow:  measured,
		Deviation:     res.Deviation,
		Status:        string(res.Status),
		ShutterType:   shutterType,
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
