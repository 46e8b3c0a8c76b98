package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

type TrackerState string

const (
	StateIdle                TrackerState = "idle"
	StatePermissionRequested TrackerState = "permission_requested"
	StateTracking            TrackerState = "tracking"
	StateSuspended           TrackerState = "suspended"
)

// Alert shown to the collector when location access is refused.
const permissionAlert = "Location permission is required to detect collections automatically. Manual marking is still available."

// TrackerConfig holds the geofence and position stream parameters.
type TrackerConfig struct {
	FenceRadiusMeters float64
	DwellDelay        time.Duration
	Watch             ports.WatchOptions
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		FenceRadiusMeters: DefaultFenceRadiusMeters,
		DwellDelay:        30 * time.Second,
		Watch: ports.WatchOptions{
			HighAccuracy:      true,
			MinInterval:       10 * time.Second,
			MinDistanceMeters: 10,
		},
	}
}

// TrackerDeps are the collaborators shared by every collector's tracker.
type TrackerDeps struct {
	Routes     ports.RouteSource
	Recorder   *Recorder
	Reconciler *Reconciler
	Locator    ports.AreaLocator
	Clock      Clock
}

type dwellKey struct {
	area        string
	routeNumber string
}

// Snapshot is a read-only view of a tracker for the UI layer.
type Snapshot struct {
	Collector    domain.Collector       `json:"collector"`
	State        TrackerState           `json:"state"`
	Loaded       bool                   `json:"loaded"`
	Schedule     []domain.ScheduleEntry `json:"schedule"`
	Collected    []string               `json:"collected"`
	Position     *domain.Coordinates    `json:"position,omitempty"`
	PendingDwell int                    `json:"pendingDwell"`
	Alert        string                 `json:"alert,omitempty"`
}

// Tracker is the location tracking loop for one logged-in collector.
//
// It owns the collector's schedule and CollectedSet. All state is guarded by
// mu; store and notification I/O always runs with mu released. A collection
// for an area is never started while one is already in flight for it, and a
// dwell task re-checks the CollectedSet when it fires.
type Tracker struct {
	collector domain.Collector
	deps      TrackerDeps
	location  ports.LocationProvider
	cfg       TrackerConfig

	mu          sync.Mutex
	state       TrackerState
	schedule    []domain.ScheduleEntry
	targets     map[string]domain.Coordinates
	collected   CollectedSet
	loaded      bool
	loadedDate  string
	inFlight    map[string]struct{}
	dwell       map[dwellKey]Timer
	current     *domain.Coordinates
	sub         ports.Subscription
	cancelWatch context.CancelFunc
	alert       string
	// Bumped on every teardown so dwell callbacks from an earlier
	// tracking session become no-ops.
	generation uint64
}

func NewTracker(collector domain.Collector, deps TrackerDeps, location ports.LocationProvider, cfg TrackerConfig) *Tracker {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if cfg.FenceRadiusMeters <= 0 {
		cfg.FenceRadiusMeters = DefaultFenceRadiusMeters
	}

	return &Tracker{
		collector: collector,
		deps:      deps,
		location:  location,
		cfg:       cfg,
		state:     StateIdle,
		collected: CollectedSet{},
		inFlight:  map[string]struct{}{},
		dwell:     map[dwellKey]Timer{},
	}
}

func (t *Tracker) Collector() domain.Collector { return t.collector }

// LoadSchedule rebuilds the schedule from the collector's routes, resolves
// area coordinates and merges today's recorded collections.
//
// The store is consulted for history only once per collector per day; later
// rebuilds reuse the in-memory CollectedSet. A route read failure leaves an
// empty schedule, and an empty schedule stops any active tracking.
func (t *Tracker) LoadSchedule(ctx context.Context) error {
	var loadErr error

	routes, err := t.deps.Routes.ListRoutesByDriver(ctx, t.collector.ID)
	if err != nil {
		log.Printf("load schedule: list routes failed: collector=%s err=%v", t.collector.ID, err)
		loadErr = fmt.Errorf("load schedule: list routes: %w: %w", ErrStoreRead, err)
		routes = nil
	}

	entries := BuildSchedule(routes)
	targets := t.locate(ctx, entries)

	t.mu.Lock()
	today := t.deps.Clock.Now().Local().Format(domain.DateLayout)
	if t.loadedDate != today {
		t.collected = CollectedSet{}
		t.loaded = false
	}
	needHistory := !t.loaded && len(entries) > 0
	t.mu.Unlock()

	if needHistory {
		set, err := t.deps.Reconciler.LoadTodaysCollections(ctx, t.collector.ID)
		if err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("load schedule: %w", err))
		} else {
			t.mu.Lock()
			for area, at := range set {
				t.collected.Add(area, at)
			}
			t.loaded = true
			t.loadedDate = today
			t.mu.Unlock()
		}
	}

	t.mu.Lock()
	t.schedule = entries
	t.targets = targets
	ApplyCollected(t.schedule, t.collected)
	t.pruneDwellLocked()
	var stop func()
	if len(t.schedule) == 0 && t.state != StateIdle {
		stop = t.teardownLocked(StateIdle)
	}
	t.mu.Unlock()

	if stop != nil {
		stop()
	}

	log.Printf("schedule loaded: collector=%s entries=%d collected=%d targets=%d",
		t.collector.ID, len(entries), len(t.collected), len(targets))

	return loadErr
}

func (t *Tracker) locate(ctx context.Context, entries []domain.ScheduleEntry) map[string]domain.Coordinates {
	if t.deps.Locator == nil || len(entries) == 0 {
		return map[string]domain.Coordinates{}
	}

	seen := make(map[string]struct{}, len(entries))
	areas := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Location]; ok {
			continue
		}
		seen[e.Location] = struct{}{}
		areas = append(areas, e.Location)
	}

	targets, err := t.deps.Locator.Locate(ctx, areas)
	if err != nil {
		// Without coordinates the geofence never fires; manual marking still works.
		log.Printf("load schedule: locate areas failed: collector=%s err=%v", t.collector.ID, err)
		return map[string]domain.Coordinates{}
	}
	return targets
}

// Start requests location permission and, once granted, captures an initial
// position and subscribes to position updates. A refusal surfaces an alert
// and returns ErrPermissionDenied with the tracker back in StateIdle; nothing
// retries on its own.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if len(t.schedule) == 0 {
		t.mu.Unlock()
		return ErrNoSchedule
	}
	if t.state == StateTracking || t.state == StatePermissionRequested {
		t.mu.Unlock()
		return nil
	}
	t.state = StatePermissionRequested
	t.alert = ""
	gen := t.generation
	t.mu.Unlock()

	granted, err := t.location.RequestForegroundPermission(ctx)
	if err != nil || !granted {
		t.mu.Lock()
		if t.generation == gen {
			t.state = StateIdle
			t.alert = permissionAlert
		}
		t.mu.Unlock()

		log.Printf("location permission denied: collector=%s err=%v", t.collector.ID, err)
		if err != nil {
			return fmt.Errorf("start tracking: %w: %w", ErrPermissionDenied, err)
		}
		return ErrPermissionDenied
	}

	var initial *domain.PositionSample
	if sample, err := t.location.CurrentPosition(ctx); err != nil {
		log.Printf("initial position unavailable: collector=%s err=%v", t.collector.ID, err)
	} else {
		initial = &sample
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	sub, err := t.location.WatchPosition(watchCtx, t.cfg.Watch, t.onPosition)
	if err != nil {
		cancel()
		t.mu.Lock()
		if t.generation == gen {
			t.state = StateIdle
		}
		t.mu.Unlock()
		return fmt.Errorf("start tracking: watch position: %w", err)
	}

	t.mu.Lock()
	if t.generation != gen || t.state != StatePermissionRequested {
		// Torn down while waiting on the device.
		t.mu.Unlock()
		sub.Stop()
		cancel()
		return nil
	}
	t.sub = sub
	t.cancelWatch = cancel
	t.state = StateTracking
	t.mu.Unlock()

	log.Printf("tracking started: collector=%s", t.collector.ID)

	if initial != nil {
		t.onPosition(*initial)
	}
	return nil
}

// onPosition evaluates the geofence of every uncollected area against a new
// position sample and arms a dwell task for each area newly entered.
func (t *Tracker) onPosition(sample domain.PositionSample) {
	cur := sample.Coordinates()

	t.mu.Lock()
	if t.state != StateTracking {
		t.mu.Unlock()
		return
	}
	t.current = &cur

	approaching := make([]dwellKey, 0)
	notified := map[string]struct{}{}
	gen := t.generation

	for _, e := range t.schedule {
		if t.collected.Has(e.Location) {
			continue
		}
		if _, busy := t.inFlight[e.Location]; busy {
			continue
		}

		target, ok := t.targets[e.Location]
		if !ok {
			continue
		}

		key := dwellKey{area: e.Location, routeNumber: e.RouteNumber}
		if _, pending := t.dwell[key]; pending {
			continue
		}

		if !InsideFence(&cur, &target, t.cfg.FenceRadiusMeters) {
			continue
		}

		t.dwell[key] = t.deps.Clock.AfterFunc(t.cfg.DwellDelay, func() { t.fireDwell(key, gen) })

		if _, ok := notified[e.Location]; !ok {
			notified[e.Location] = struct{}{}
			approaching = append(approaching, key)
		}
	}
	t.mu.Unlock()

	for _, key := range approaching {
		log.Printf("geofence entered: collector=%s area=%q route=%s", t.collector.ID, key.area, key.routeNumber)
		t.deps.Recorder.notify(context.Background(), key.area, key.routeNumber, t.collector.ID, domain.NotifyApproaching)
	}
}

// fireDwell runs when the collector stayed long enough for an automatic
// collection. It records only if the area is still uncollected.
func (t *Tracker) fireDwell(key dwellKey, gen uint64) {
	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		return
	}
	delete(t.dwell, key)
	if t.collected.Has(key.area) {
		t.mu.Unlock()
		log.Printf("dwell skipped, already collected: collector=%s area=%q", t.collector.ID, key.area)
		return
	}
	if !t.hasEntryLocked(key) {
		t.mu.Unlock()
		log.Printf("dwell skipped, no longer scheduled: collector=%s area=%q route=%s", t.collector.ID, key.area, key.routeNumber)
		return
	}
	t.mu.Unlock()

	if _, err := t.collect(context.Background(), key.area, key.routeNumber, domain.CollectionAutomatic); err != nil {
		if !errors.Is(err, ErrAlreadyCollected) && !errors.Is(err, ErrCollectionInFlight) {
			log.Printf("automatic collection failed: collector=%s area=%q err=%v", t.collector.ID, key.area, err)
		}
	}
}

// ManualCollect records a collection for an uncollected schedule entry,
// regardless of geofence state. An empty routeNumber matches the first entry
// for the area.
func (t *Tracker) ManualCollect(ctx context.Context, area, routeNumber string) (domain.CollectionRecord, error) {
	area = strings.TrimSpace(area)

	t.mu.Lock()
	found := false
	for _, e := range t.schedule {
		if e.Location != area {
			continue
		}
		if routeNumber != "" && e.RouteNumber != routeNumber {
			continue
		}
		routeNumber = e.RouteNumber
		found = true
		break
	}
	t.mu.Unlock()

	if !found {
		return domain.CollectionRecord{}, fmt.Errorf("manual collect %q: %w", area, ErrEntryNotFound)
	}

	return t.collect(ctx, area, routeNumber, domain.CollectionManual)
}

func (t *Tracker) collect(ctx context.Context, area, routeNumber string, typ domain.CollectionType) (domain.CollectionRecord, error) {
	t.mu.Lock()
	if t.collected.Has(area) {
		t.mu.Unlock()
		return domain.CollectionRecord{}, fmt.Errorf("collect %q: %w", area, ErrAlreadyCollected)
	}
	if _, busy := t.inFlight[area]; busy {
		t.mu.Unlock()
		return domain.CollectionRecord{}, fmt.Errorf("collect %q: %w", area, ErrCollectionInFlight)
	}
	t.inFlight[area] = struct{}{}

	var pos *domain.Coordinates
	if t.current != nil {
		c := *t.current
		pos = &c
	}
	t.mu.Unlock()

	rec, err := t.deps.Recorder.Record(ctx, RecordRequest{
		Area:        area,
		RouteNumber: routeNumber,
		Collector:   t.collector,
		Position:    pos,
		Type:        typ,
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.inFlight, area)
	if err != nil {
		return domain.CollectionRecord{}, err
	}

	at := rec.CollectedAt
	if at.IsZero() {
		at = t.deps.Clock.Now()
	}
	t.collected.Add(area, at)
	for i := range t.schedule {
		if t.schedule[i].Location == area && !t.schedule[i].Collected {
			t.schedule[i].MarkCollected(at)
		}
	}
	for key, timer := range t.dwell {
		if key.area == area {
			timer.Stop()
			delete(t.dwell, key)
		}
	}

	return rec, nil
}

// Suspend stops tracking after location access was revoked. The schedule and
// CollectedSet are kept so tracking can resume when access is granted again.
func (t *Tracker) Suspend() {
	t.mu.Lock()
	if t.state != StateTracking && t.state != StatePermissionRequested {
		t.mu.Unlock()
		return
	}
	stop := t.teardownLocked(StateSuspended)
	t.alert = permissionAlert
	t.mu.Unlock()

	stop()
	log.Printf("tracking suspended: collector=%s", t.collector.ID)
}

// Close tears down tracking and discards the schedule, as on logout.
func (t *Tracker) Close() {
	t.mu.Lock()
	stop := t.teardownLocked(StateIdle)
	t.schedule = nil
	t.targets = nil
	t.collected = CollectedSet{}
	t.loaded = false
	t.loadedDate = ""
	t.mu.Unlock()

	stop()
	log.Printf("tracking closed: collector=%s", t.collector.ID)
}

// pruneDwellLocked cancels dwell tasks whose (area, route) is no longer in
// the schedule or whose area lost its coordinates.
func (t *Tracker) pruneDwellLocked() {
	for key, timer := range t.dwell {
		if _, ok := t.targets[key.area]; ok && t.hasEntryLocked(key) {
			continue
		}
		timer.Stop()
		delete(t.dwell, key)
		log.Printf("dwell cancelled, schedule changed: collector=%s area=%q route=%s", t.collector.ID, key.area, key.routeNumber)
	}
}

func (t *Tracker) hasEntryLocked(key dwellKey) bool {
	for _, e := range t.schedule {
		if e.Location == key.area && e.RouteNumber == key.routeNumber {
			return true
		}
	}
	return false
}

// teardownLocked cancels every pending dwell task and detaches the position
// stream. The returned func stops the subscription and must be called after
// mu is released.
func (t *Tracker) teardownLocked(next TrackerState) func() {
	for key, timer := range t.dwell {
		timer.Stop()
		delete(t.dwell, key)
	}
	t.generation++
	t.state = next
	t.current = nil

	sub, cancel := t.sub, t.cancelWatch
	t.sub, t.cancelWatch = nil, nil

	return func() {
		if sub != nil {
			sub.Stop()
		}
		if cancel != nil {
			cancel()
		}
	}
}

func (t *Tracker) State() TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Snapshot copies the tracker state for display.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	schedule := make([]domain.ScheduleEntry, len(t.schedule))
	copy(schedule, t.schedule)

	var pos *domain.Coordinates
	if t.current != nil {
		c := *t.current
		pos = &c
	}

	return Snapshot{
		Collector:    t.collector,
		State:        t.state,
		Loaded:       t.loaded,
		Schedule:     schedule,
		Collected:    t.collected.Areas(),
		Position:     pos,
		PendingDwell: len(t.dwell),
		Alert:        t.alert,
	}
}
