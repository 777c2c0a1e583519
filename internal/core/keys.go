package core

import (
	"errors"
	"fmt"

	"smokecheck/pkg/domain"
)

// DefaultKeyPrefix namespaces the durable keys written by the store.
const DefaultKeyPrefix = "smokecheck:"

// HistoryCapacity bounds the quick-calc history log.
const HistoryCapacity = 5

// ErrUnknownKind is returned for favorites operations on an unsupported kind.
var ErrUnknownKind = errors.New("unknown entity kind")

// Keys lists the durable keys owned by a store.
type Keys struct {
	Projects          string
	FavoriteProjects  string
	FavoriteBuildings string
	FavoriteZones     string
	FavoriteShutters  string
	History           string
}

func newKeys(prefix string) Keys {
	return Keys{
		Projects:          prefix + "projects",
		FavoriteProjects:  prefix + "favorites:projects",
		FavoriteBuildings: prefix + "favorites:buildings",
		FavoriteZones:     prefix + "favorites:zones",
		FavoriteShutters:  prefix + "favorites:shutters",
		History:           prefix + "history",
	}
}

// All returns every key in a stable order.
func (k Keys) All() []string {
	return []string{k.Projects, k.FavoriteProjects, k.FavoriteBuildings, k.FavoriteZones, k.FavoriteShutters, k.History}
}

// Favorites returns the key holding the favorites set for kind.
func (k Keys) Favorites(kind domain.EntityKind) (string, error) {
	switch kind {
	case domain.EntityProject:
		return k.FavoriteProjects, nil
	case domain.EntityBuilding:
		return k.FavoriteBuildings, nil
	case domain.EntityZone:
		return k.FavoriteZones, nil
	case domain.EntityShutter:
		return k.FavoriteShutters, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
