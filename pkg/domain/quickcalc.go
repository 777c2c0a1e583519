package domain

import "time"

// QuickCalcEntry records one ad-hoc classification run kept in the history log.
type QuickCalcEntry struct {
	ID            string       `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	ReferenceFlow float64      `json:"referenceFlow"`
	MeasuredFlow  float64      `json:"measuredFlow"`
	Deviation     float64      `json:"deviation"`
	Status        string       `json:"status"`
	ShutterType   *ShutterType `json:"shutterType,omitempty"`
}

// ShutterMatch is a search hit: the shutter plus the names of its ancestors.
type ShutterMatch struct {
	Shutter      Shutter `json:"shutter"`
	ZoneID       string  `json:"zoneId"`
	ZoneName     string  `json:"zoneName"`
	BuildingID   string  `json:"buildingId"`
	BuildingName string  `json:"buildingName"`
	ProjectID    string  `json:"projectId"`
	ProjectName  string  `json:"projectName"`
}
