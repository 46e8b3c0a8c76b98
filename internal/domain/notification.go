package domain

import "time"

type NotificationStatus string

const (
	NotifyApproaching NotificationStatus = "approaching"
	NotifyCollected   NotificationStatus = "collected"
)

// NotificationEvent is a resident-facing notice about collection progress in an area.
type NotificationEvent struct {
	ID          string             `json:"id"`
	Area        string             `json:"area"`
	RouteNumber string             `json:"routeNumber,omitempty"`
	CollectorID string             `json:"collectorId,omitempty"`
	Status      NotificationStatus `json:"status"`
	Message     string             `json:"message"`
	CreatedAt   time.Time          `json:"createdAt"`
}
