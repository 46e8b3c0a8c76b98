package dto

import (
	"time"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/services"
)

type LoginRequest struct {
	Name string `json:"name"`
}

type ManualCollectRequest struct {
	Area        string `json:"area"`
	RouteNumber string `json:"routeNumber"`
}

type PositionRequest struct {
	Latitude   *float64   `json:"latitude"`
	Longitude  *float64   `json:"longitude"`
	CapturedAt *time.Time `json:"capturedAt"`
}

type PermissionRequest struct {
	Granted *bool `json:"granted"`
}

// SessionResponse is the tracker view returned by session and schedule
// endpoints. Warnings lists degraded steps (store reads, permission) that
// did not prevent the session from existing.
type SessionResponse struct {
	services.Snapshot
	Warnings []string `json:"warnings,omitempty"`
}

type CollectionResponse struct {
	Record domain.CollectionRecord `json:"record"`
}

type PermissionResponse struct {
	Granted bool                  `json:"granted"`
	State   services.TrackerState `json:"state,omitempty"`
}
