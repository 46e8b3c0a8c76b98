package services

import (
	"math"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Mean Earth radius in meters.
const earthRadiusMeters = 6371000

// DefaultFenceRadiusMeters is the geofence radius around an area's coordinates.
const DefaultFenceRadiusMeters = 100.0

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula. NaN inputs propagate; callers validate coordinates.
func Distance(a, b domain.Coordinates) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InsideFence reports whether current lies within radiusMeters of target.
// It fails closed: a missing position on either side is never inside.
func InsideFence(current, target *domain.Coordinates, radiusMeters float64) bool {
	if current == nil || target == nil {
		return false
	}

	d := Distance(*current, *target)
	if math.IsNaN(d) {
		return false
	}
	return d <= radiusMeters
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
