package core

import (
	"encoding/json"
	"fmt"
	"time"

	"smokecheck/pkg/domain"
)

// TimeLayout is the durable date format: ISO-8601 UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timeNow() time.Time { return time.Now() }

func truncate(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// FormatTime renders t in the durable date format.
func FormatTime(t time.Time) string { return t.UTC().Format(TimeLayout) }

// wireDate decodes leniently: a present value that is not a parseable
// date string keeps ok=false instead of failing the whole document.
type wireDate struct {
	t  time.Time
	ok bool
}

func newWireDate(t time.Time) *wireDate { return &wireDate{t: t, ok: true} }

func (d wireDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatTime(d.t))
}

func (d *wireDate) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d.t, d.ok = truncate(t), true
			return nil
		}
	}
	return nil
}

// required resolves a mandatory date: missing or unparsable becomes now.
func required(d *wireDate, now time.Time) time.Time {
	if d == nil || !d.ok {
		return now
	}
	return d.t
}

// optional resolves an optional date: missing stays nil, unparsable becomes now.
func optional(d *wireDate, now time.Time) *time.Time {
	if d == nil {
		return nil
	}
	t := now
	if d.ok {
		t = d.t
	}
	return &t
}

func optionalWire(t *time.Time) *wireDate {
	if t == nil {
		return nil
	}
	return newWireDate(*t)
}

type wireProject struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	City      *string        `json:"city,omitempty"`
	StartDate *wireDate      `json:"startDate,omitempty"`
	EndDate   *wireDate      `json:"endDate,omitempty"`
	CreatedAt *wireDate      `json:"createdAt"`
	UpdatedAt *wireDate      `json:"updatedAt"`
	Buildings []wireBuilding `json:"buildings"`
}

type wireBuilding struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"projectId"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	CreatedAt       *wireDate  `json:"createdAt"`
	UpdatedAt       *wireDate  `json:"updatedAt"`
	FunctionalZones []wireZone `json:"functionalZones"`
}

type wireZone struct {
	ID          string        `json:"id"`
	BuildingID  string        `json:"buildingId"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	CreatedAt   *wireDate     `json:"createdAt"`
	UpdatedAt   *wireDate     `json:"updatedAt"`
	Shutters    []wireShutter `json:"shutters"`
}

type wireShutter struct {
	ID            string             `json:"id"`
	ZoneID        string             `json:"zoneId"`
	Name          string             `json:"name"`
	Type          domain.ShutterType `json:"type"`
	ReferenceFlow float64            `json:"referenceFlow"`
	MeasuredFlow  float64            `json:"measuredFlow"`
	Remarks       *string            `json:"remarks,omitempty"`
	CreatedAt     *wireDate          `json:"createdAt"`
	UpdatedAt     *wireDate          `json:"updatedAt"`
}

type wireHistoryEntry struct {
	ID            string              `json:"id"`
	Timestamp     *wireDate           `json:"timestamp"`
	ReferenceFlow float64             `json:"referenceFlow"`
	MeasuredFlow  float64             `json:"measuredFlow"`
	Deviation     float64             `json:"deviation"`
	Status        string              `json:"status"`
	ShutterType   *domain.ShutterType `json:"shutterType,omitempty"`
}

// EncodeProjects serializes the tree to its durable JSON form.
func EncodeProjects(projects []domain.Project) (string, error) {
	out := make([]wireProject, 0, len(projects))
	for _, p := range projects {
		wp := wireProject{
			ID:        p.ID,
			Name:      p.Name,
			City:      p.City,
			StartDate: optionalWire(p.StartDate),
			EndDate:   optionalWire(p.EndDate),
			CreatedAt: newWireDate(p.CreatedAt),
			UpdatedAt: newWireDate(p.UpdatedAt),
			Buildings: make([]wireBuilding, 0, len(p.Buildings)),
		}
		for _, b := range p.Buildings {
			wb := wireBuilding{
				ID:              b.ID,
				ProjectID:       b.ProjectID,
				Name:            b.Name,
				Description:     b.Description,
				CreatedAt:       newWireDate(b.CreatedAt),
				UpdatedAt:       newWireDate(b.UpdatedAt),
				FunctionalZones: make([]wireZone, 0, len(b.FunctionalZones)),
			}
			for _, z := range b.FunctionalZones {
				wz := wireZone{
					ID:          z.ID,
					BuildingID:  z.BuildingID,
					Name:        z.Name,
					Description: z.Description,
					CreatedAt:   newWireDate(z.CreatedAt),
					UpdatedAt:   newWireDate(z.UpdatedAt),
					Shutters:    make([]wireShutter, 0, len(z.Shutters)),
				}
				for _, s := range z.Shutters {
					wz.Shutters = append(wz.Shutters, wireShutter{
						ID:            s.ID,
						ZoneID:        s.ZoneID,
						Name:          s.Name,
						Type:          s.Type,
						ReferenceFlow: s.ReferenceFlow,
						MeasuredFlow:  s.MeasuredFlow,
						Remarks:       s.Remarks,
						CreatedAt:     newWireDate(s.CreatedAt),
						UpdatedAt:     newWireDate(s.UpdatedAt),
					})
				}
				wb.FunctionalZones = append(wb.FunctionalZones, wz)
			}
			wp.Buildings = append(wp.Buildings, wb)
		}
		out = append(out, wp)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode projects: %w", err)
	}
	return string(data), nil
}

// DecodeProjects parses the durable tree. Back-references are rebuilt from
// containment and child lists are never nil.
func DecodeProjects(raw string, now time.Time) ([]domain.Project, error) {
	var in []wireProject
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	now = truncate(now)
	out := make([]domain.Project, 0, len(in))
	for _, wp := range in {
		p := domain.Project{
			Base:      domain.Base{ID: wp.ID, CreatedAt: required(wp.CreatedAt, now), UpdatedAt: required(wp.UpdatedAt, now)},
			Name:      wp.Name,
			City:      wp.City,
			StartDate: optional(wp.StartDate, now),
			EndDate:   optional(wp.EndDate, now),
			Buildings: make([]domain.Building, 0, len(wp.Buildings)),
		}
		for _, wb := range wp.Buildings {
			b := domain.Building{
				Base:            domain.Base{ID: wb.ID, CreatedAt: required(wb.CreatedAt, now), UpdatedAt: required(wb.UpdatedAt, now)},
				ProjectID:       p.ID,
				Name:            wb.Name,
				Description:     wb.Description,
				FunctionalZones: make([]domain.FunctionalZone, 0, len(wb.FunctionalZones)),
			}
			for _, wz := range wb.FunctionalZones {
				z := domain.FunctionalZone{
					Base:        domain.Base{ID: wz.ID, CreatedAt: required(wz.CreatedAt, now), UpdatedAt: required(wz.UpdatedAt, now)},
					BuildingID:  b.ID,
					Name:        wz.Name,
					Description: wz.Description,
					Shutters:    make([]domain.Shutter, 0, len(wz.Shutters)),
				}
				for _, ws := range wz.Shutters {
					z.Shutters = append(z.Shutters, domain.Shutter{
						Base:          domain.Base{ID: ws.ID, CreatedAt: required(ws.CreatedAt, now), UpdatedAt: required(ws.UpdatedAt, now)},
						ZoneID:        z.ID,
						Name:          ws.Name,
						Type:          ws.Type,
						ReferenceFlow: ws.ReferenceFlow,
						MeasuredFlow:  ws.MeasuredFlow,
						Remarks:       ws.Remarks,
					})
				}
				b.FunctionalZones = append(b.FunctionalZones, z)
			}
			p.Buildings = append(p.Buildings, b)
		}
		out = append(out, p)
	}
	return out, nil
}

// EncodeIDs serializes a favorites set.
func EncodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode ids: %w", err)
	}
	return string(data), nil
}

// DecodeIDs parses a favorites set.
func DecodeIDs(raw string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode ids: %w", err)
	}
	return dedupe(ids), nil
}

// EncodeHistory serializes the quick-calc log.
func EncodeHistory(entries []domain.QuickCalcEntry) (string, error) {
	out := make([]wireHistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, wireHistoryEntry{
			ID:            e.ID,
			Timestamp:     newWireDate(e.Timestamp),
			ReferenceFlow: e.ReferenceFlow,
			MeasuredFlow:  e.MeasuredFlow,
			Deviation:     e.Deviation,
			Status:        e.Status,
			ShutterType:   e.ShutterType,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(data), nil
}

// DecodeHistory parses the quick-calc log, keeping at most HistoryCapacity entries.
func DecodeHistory(raw string, now time.Time) ([]domain.QuickCalcEntry, error) {
	var in []wireHistoryEntry
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	now = truncate(now)
	if len(in) > HistoryCapacity {
		in = in[:HistoryCapacity]
	}
	out := make([]domain.QuickCalcEntry, 0, len(in))
	for _, w := range in {
		out = append(out, domain.QuickCalcEntry{
			ID:            w.ID,
			Timestamp:     required(w.Timestamp, now),
			ReferenceFlow: w.ReferenceFlow,
			MeasuredFlow:  w.MeasuredFlow,
			Deviation:     w.Deviation,
			Status:        w.Status,
			ShutterType:   w.ShutterType,
		})
	}
	return out, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
