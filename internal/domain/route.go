package domain

import "time"

// Represents a collector's assigned sequence of areas with a collection time window.
// Time and EndTime are same-day "HH:MM" strings as stored by the route source.
type Route struct {
	Driver      string   `json:"driver"`
	RouteNumber string   `json:"route"`
	Areas       []string `json:"areas"`
	Time        string   `json:"time"`
	EndTime     string   `json:"endTime"`
	Type        string   `json:"type"`
	Frequency   string   `json:"frequency"`
	DayOff      string   `json:"dayOff,omitempty"`
}

// Represents one area's time slice within a route, as shown to the collector.
// Entries are derived from a Route and rebuilt whenever the route set changes;
// Collected and CollectedAt are mutated in place by reconciliation and recording.
type ScheduleEntry struct {
	Time        string     `json:"time"`
	EndTime     string     `json:"endTime"`
	Location    string     `json:"location"`
	RouteNumber string     `json:"routeNumber"`
	Type        string     `json:"type"`
	Frequency   string     `json:"frequency"`
	DayOff      string     `json:"dayOff,omitempty"`
	AreaIndex   int        `json:"areaIndex"`
	Collected   bool       `json:"collected"`
	CollectedAt *time.Time `json:"collectedAt,omitempty"`
}

// MarkCollected flags the entry as collected at the given time.
func (e *ScheduleEntry) MarkCollected(at time.Time) {
	e.Collected = true
	t := at
	e.CollectedAt = &t
}
