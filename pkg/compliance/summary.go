package compliance

import "smokecheck/pkg/domain"

// Summary counts shutters per tier.
type Summary struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	Acceptable   int `json:"acceptable"`
	NonCompliant int `json:"nonCompliant"`
	Invalid      int `json:"invalid"`
}

// Add counts one result.
func (s *Summary) Add(r Result) {
	s.Total++
	switch r.Status {
	case StatusCompliant:
		s.Compliant++
	case StatusAcceptable:
		s.Acceptable++
	case StatusNonCompliant:
		s.NonCompliant++
	default:
		s.Invalid++
	}
}

// Merge folds another summary into s.
func (s *Summary) Merge(o Summary) {
	s.Total += o.Total
	s.Compliant += o.Compliant
	s.Acceptable += o.Acceptable
	s.NonCompliant += o.NonCompliant
	s.Invalid += o.Invalid
}

// ComplianceRate is the share of valid measurements that are compliant or
// acceptable, in percent. It is 0 when nothing valid was measured.
func (s Summary) ComplianceRate() float64 {
	valid := s.Total - s.Invalid
	if valid == 0 {
		return 0
	}
	return float64(s.Compliant+s.Acceptable) / float64(valid) * 100
}

// Summarize classifies every shutter of the zone.
func Summarize(shutters []domain.Shutter) Summary {
	var s Summary
	for _, sh := range shutters {
		s.Add(ClassifyShutter(sh))
	}
	return s
}

// ProjectReport is the per-building breakdown consumed by report renderers.
type ProjectReport struct {
	ProjectID   string           `json:"projectId"`
	ProjectName string           `json:"projectName"`
	Buildings   []BuildingReport `json:"buildings"`
	Summary     Summary          `json:"summary"`
}

// BuildingReport aggregates a building's zones.
type BuildingReport struct {
	BuildingID   string       `json:"buildingId"`
	BuildingName string       `json:"buildingName"`
	Zones        []ZoneReport `json:"zones"`
	Summary      Summary      `json:"summary"`
}

// ZoneReport aggregates a zone's shutters.
type ZoneReport struct {
	ZoneID   string  `json:"zoneId"`
	ZoneName string  `json:"zoneName"`
	Summary  Summary `json:"summary"`
}

// ReportProject walks the project read-only and aggregates tiers bottom-up.
func ReportProject(p domain.Project) ProjectReport {
	rep := ProjectReport{ProjectID: p.ID, ProjectName: p.Name, Buildings: make([]BuildingReport, 0, len(p.Buildings))}
	for _, b := range p.Buildings {
		br := BuildingReport{BuildingID: b.ID, BuildingName: b.Name, Zones: make([]ZoneReport, 0, len(b.FunctionalZones))}
		for _, z := range b.FunctionalZones {
			zr := ZoneReport{ZoneID: z.ID, ZoneName: z.Name, Summary: Summarize(z.Shutters)}
			br.Summary.Merge(zr.Summary)
			br.Zones = append(br.Zones, zr)
		}
		rep.Summary.Merge(br.Summary)
		rep.Buildings = append(rep.Buildings, br)
	}
	return rep
}
