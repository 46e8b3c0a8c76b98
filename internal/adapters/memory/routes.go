package memory

import (
	"context"
	"sync"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// RouteStore is an in-memory RouteSource.
type RouteStore struct {
	mu     sync.RWMutex
	routes []domain.Route
}

func NewRouteStore(routes ...domain.Route) *RouteStore {
	return &RouteStore{routes: append([]domain.Route(nil), routes...)}
}

// Replace swaps the whole route set.
func (s *RouteStore) Replace(routes []domain.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append([]domain.Route(nil), routes...)
}

func (s *RouteStore) ListRoutesByDriver(ctx context.Context, driverID string) ([]domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Route, 0)
	for _, r := range s.routes {
		if r.Driver == driverID {
			r.Areas = append([]string(nil), r.Areas...)
			out = append(out, r)
		}
	}
	return out, nil
}
