package core

import (
	"context"
	"strings"

	"smokecheck/pkg/domain"
)

// SearchShutters returns the shutters whose haystack (shutter, zone,
// building and project names, project city, shutter remarks) contains every
// whitespace-separated keyword of query, case-insensitively. Results keep
// tree order. A blank query matches nothing.
func (s *Store) SearchShutters(ctx context.Context, query string) []domain.ShutterMatch {
	keywords := strings.Fields(strings.ToLower(query))
	matches := []domain.ShutterMatch{}
	if len(keywords) == 0 {
		return matches
	}
	s.Initialize(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		for _, b := range p.Buildings {
			for _, z := range b.FunctionalZones {
				for _, sh := range z.Shutters {
					haystack := strings.ToLower(strings.Join([]string{
						sh.Name, z.Name, b.Name, p.Name, deref(p.City), deref(sh.Remarks),
					}, " "))
					if !containsAll(haystack, keywords) {
						continue
					}
					matches = append(matches, domain.ShutterMatch{
						Shutter:      domain.CloneShutter(sh),
						ZoneID:       z.ID,
						ZoneName:     z.Name,
						BuildingID:   b.ID,
						BuildingName: b.Name,
						ProjectID:    p.ID,
						ProjectName:  p.Name,
					})
				}
			}
		}
	}
	return matches
}

func containsAll(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(haystack, kw) {
			return false
		}
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
