package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/memory"
	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// metersPerDegreeLat is the haversine distance of one degree of latitude.
const metersPerDegreeLat = earthRadiusMeters * 3.141592653589793 / 180

var areaA = domain.Coordinates{Lat: 14.6000, Lon: 121.0000}
var areaB = domain.Coordinates{Lat: 14.6500, Lon: 121.0500}

// north returns a sample the given number of meters north of c.
func north(c domain.Coordinates, meters float64) domain.PositionSample {
	return domain.PositionSample{Latitude: c.Lat + meters/metersPerDegreeLat, Longitude: c.Lon}
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and runs every due, unstopped timer.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due := make([]*fakeTimer, 0)
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// countingStore wraps the memory store to count reads and inject failures.
type countingStore struct {
	*memory.CollectionStore

	mu          sync.Mutex
	byDate      int
	byCollector int
	appendErr   error
	readErr     error
}

func (s *countingStore) Append(ctx context.Context, rec *domain.CollectionRecord) error {
	s.mu.Lock()
	err := s.appendErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.CollectionStore.Append(ctx, rec)
}

func (s *countingStore) ListByCollectorAndDate(ctx context.Context, collectorID, date string) ([]domain.CollectionRecord, error) {
	s.mu.Lock()
	s.byDate++
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.CollectionStore.ListByCollectorAndDate(ctx, collectorID, date)
}

func (s *countingStore) ListByCollector(ctx context.Context, collectorID string) ([]domain.CollectionRecord, error) {
	s.mu.Lock()
	s.byCollector++
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.CollectionStore.ListByCollector(ctx, collectorID)
}

func (s *countingStore) setAppendErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

type fakeSubscription struct{ stopped bool }

func (s *fakeSubscription) Stop() { s.stopped = true }

// fakeLocation is a LocationProvider driven directly by the test.
type fakeLocation struct {
	mu       sync.Mutex
	granted  bool
	current  *domain.PositionSample
	callback func(domain.PositionSample)
	sub      *fakeSubscription
	opts     ports.WatchOptions
	requests int
}

func (l *fakeLocation) RequestForegroundPermission(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests++
	return l.granted, nil
}

func (l *fakeLocation) CurrentPosition(ctx context.Context) (domain.PositionSample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return domain.PositionSample{}, errors.New("no fix yet")
	}
	return *l.current, nil
}

func (l *fakeLocation) WatchPosition(ctx context.Context, opts ports.WatchOptions, fn func(domain.PositionSample)) (ports.Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callback = fn
	l.opts = opts
	l.sub = &fakeSubscription{}
	return l.sub, nil
}

// push delivers a sample to the active subscription, if any.
func (l *fakeLocation) push(s domain.PositionSample) {
	l.mu.Lock()
	fn, sub := l.callback, l.sub
	l.mu.Unlock()
	if fn == nil || sub == nil || sub.stopped {
		return
	}
	fn(s)
}

type fixture struct {
	clock     *fakeClock
	store     *countingStore
	routes    *memory.RouteStore
	notes     *memory.NotificationLog
	location  *fakeLocation
	deps      TrackerDeps
	collector domain.Collector
}

func newFixture(routes ...domain.Route) *fixture {
	clock := newFakeClock(time.Date(2026, 10, 17, 8, 0, 0, 0, time.Local))
	store := &countingStore{CollectionStore: memory.NewCollectionStore().WithClock(clock.Now)}
	notes := memory.NewNotificationLog()
	routeStore := memory.NewRouteStore(routes...)

	return &fixture{
		clock:    clock,
		store:    store,
		routes:   routeStore,
		notes:    notes,
		location: &fakeLocation{granted: true},
		deps: TrackerDeps{
			Routes:     routeStore,
			Recorder:   NewRecorder(store, notes, clock),
			Reconciler: NewReconciler(store, clock),
			Locator:    memory.StaticLocator{"A": areaA, "B": areaB},
			Clock:      clock,
		},
		collector: domain.Collector{ID: "c1", Name: "Juan"},
	}
}

func (f *fixture) tracker() *Tracker {
	return NewTracker(f.collector, f.deps, f.location, DefaultTrackerConfig())
}

func routeAB() domain.Route {
	return domain.Route{
		Driver:      "c1",
		RouteNumber: "R1",
		Areas:       []string{"A", "B"},
		Time:        "07:00",
		EndTime:     "10:00",
		Type:        "biodegradable",
		Frequency:   "daily",
	}
}

func (f *fixture) notificationsWith(status domain.NotificationStatus) []domain.NotificationEvent {
	out := make([]domain.NotificationEvent, 0)
	for _, ev := range f.notes.Events() {
		if ev.Status == status {
			out = append(out, ev)
		}
	}
	return out
}
