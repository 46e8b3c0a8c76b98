package ports

import (
	"context"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Port: a boundary for reading the routes assigned to a collector.
type RouteSource interface {
	// Return all routes whose driver is the given collector.
	ListRoutesByDriver(ctx context.Context, driverID string) ([]domain.Route, error)
}
