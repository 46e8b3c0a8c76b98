package domain

import "time"

// PositionSample is a single GPS fix from the collector's device.
// Only the latest sample is held; it is never persisted.
type PositionSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"capturedAt"`
}

func (p PositionSample) Coordinates() Coordinates {
	return Coordinates{Lon: p.Longitude, Lat: p.Latitude}
}
