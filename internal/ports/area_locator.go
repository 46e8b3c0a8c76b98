package ports

import (
	"context"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Resolves area names to the coordinates used as geofence targets.
// Areas that cannot be resolved are omitted from the result rather than
// reported as errors; the tracker never fences an unknown area.
type AreaLocator interface {
	Locate(ctx context.Context, areas []string) (map[string]domain.Coordinates, error)
}
