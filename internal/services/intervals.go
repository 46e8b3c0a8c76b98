package services

import (
	"fmt"
	"log"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Bounds on the per-area slice length, in minutes.
const (
	MinSliceMinutes = 60
	MaxSliceMinutes = 90
)

// Interval is one area's slice of a route's collection window.
type Interval struct {
	Area      string
	StartTime string
	EndTime   string
	// 1-based position of Area in the route's area list. Not unique across routes.
	Index int

	startMin int
	endMin   int
}

// Minutes returns the slice length in minutes.
func (iv Interval) Minutes() int { return iv.endMin - iv.startMin }

// GenerateIntervals splits the same-day window [start, end] into one slice per
// area, in input order. Each slice is floor(window/N) minutes clamped to
// [MinSliceMinutes, MaxSliceMinutes]; slices are laid end to end from start and
// clipped at end.
//
// An empty area list, missing times or a window that does not move forward
// yield no intervals. Malformed times yield no intervals and an ErrParse error.
func GenerateIntervals(start, end string, areas []string) ([]Interval, error) {
	if len(areas) == 0 || strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return nil, nil
	}

	startMin, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("generate intervals: start: %w", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("generate intervals: end: %w", err)
	}

	total := endMin - startMin
	if total <= 0 {
		return nil, nil
	}

	length := total / len(areas)
	length = max(MinSliceMinutes, min(length, MaxSliceMinutes))

	out := make([]Interval, 0, len(areas))
	for i, area := range areas {
		s := min(startMin+i*length, endMin)
		e := min(s+length, endMin)

		out = append(out, Interval{
			Area:      area,
			StartTime: formatClock(s),
			EndTime:   formatClock(e),
			Index:     i + 1,
			startMin:  s,
			endMin:    e,
		})
	}

	return out, nil
}

// BuildSchedule expands every route into schedule entries and orders them by
// slice start time across routes. A route whose window cannot be sliced keeps
// one undivided [time, endTime] entry per area.
func BuildSchedule(routes []domain.Route) []domain.ScheduleEntry {
	entries := make([]domain.ScheduleEntry, 0, len(routes)*4)

	for _, r := range routes {
		intervals, err := GenerateIntervals(r.Time, r.EndTime, r.Areas)
		if err != nil {
			log.Printf("build schedule: route=%s driver=%s err=%v", r.RouteNumber, r.Driver, err)
		}

		if len(intervals) == 0 {
			for i, area := range r.Areas {
				entries = append(entries, newEntry(r, area, r.Time, r.EndTime, i+1))
			}
			continue
		}

		for _, iv := range intervals {
			entries = append(entries, newEntry(r, iv.Area, iv.StartTime, iv.EndTime, iv.Index))
		}
	}

	// Unparseable start times sort last; ties keep route order.
	slices.SortStableFunc(entries, func(a, b domain.ScheduleEntry) int {
		return sortKey(a.Time) - sortKey(b.Time)
	})

	return entries
}

func newEntry(r domain.Route, area, start, end string, index int) domain.ScheduleEntry {
	return domain.ScheduleEntry{
		Time:        start,
		EndTime:     end,
		Location:    area,
		RouteNumber: r.RouteNumber,
		Type:        r.Type,
		Frequency:   r.Frequency,
		DayOff:      r.DayOff,
		AreaIndex:   index,
	}
}

func sortKey(clock string) int {
	m, err := parseClock(clock)
	if err != nil {
		return math.MaxInt32
	}
	return m
}

// parseClock converts "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrParse, s)
	}

	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour in %q", ErrParse, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrParse, s)
	}

	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
