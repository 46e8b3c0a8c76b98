package domain

import "time"

type CollectionType string

const (
	CollectionManual    CollectionType = "manual"
	CollectionAutomatic CollectionType = "automatic"
)

// StatusCompleted is the only status a collection record is written with.
const StatusCompleted = "completed"

// DateLayout is the calendar date format of CollectionRecord.CollectedDate.
const DateLayout = "2006-01-02"

// CollectionRecord is one persisted collection event. Records are immutable once
// written and the store does not enforce uniqueness; readers collapse duplicates
// per (collector, area, date).
//
// CollectedAt is assigned by the store at write time. CollectedDate may be empty
// for records written before the field existed.
type CollectionRecord struct {
	ID             string         `json:"id"`
	Area           string         `json:"area"`
	RouteNumber    string         `json:"routeNumber"`
	CollectorID    string         `json:"collectorId"`
	CollectorName  string         `json:"collectorName"`
	CollectedAt    time.Time      `json:"collectedAt"`
	CollectedDate  string         `json:"collectedDate,omitempty"`
	Location       *Coordinates   `json:"location,omitempty"`
	Status         string         `json:"status"`
	CollectionType CollectionType `json:"collectionType"`
	Timestamp      int64          `json:"timestamp"`
}

// Collector identifies the logged-in operator. It is passed explicitly into
// tracker entry points instead of being read from ambient session state.
type Collector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
