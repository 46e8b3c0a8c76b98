package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// LocationFactory returns the location provider of a collector's device.
type LocationFactory func(collectorID string) ports.LocationProvider

// SessionManager keeps one Tracker per logged-in collector. Collector identity
// is always passed in explicitly; there is no ambient session.
type SessionManager struct {
	deps      TrackerDeps
	locations LocationFactory
	cfg       TrackerConfig

	mu       sync.Mutex
	sessions map[string]*Tracker
}

func NewSessionManager(deps TrackerDeps, locations LocationFactory, cfg TrackerConfig) *SessionManager {
	return &SessionManager{
		deps:      deps,
		locations: locations,
		cfg:       cfg,
		sessions:  make(map[string]*Tracker),
	}
}

// Login replaces any previous session for the collector, loads the schedule
// and starts tracking when there is something to track.
//
// The tracker is returned even when loading or permission failed so callers
// can show its state; the error explains what degraded.
func (m *SessionManager) Login(ctx context.Context, collector domain.Collector) (*Tracker, error) {
	collector.ID = strings.TrimSpace(collector.ID)
	if collector.ID == "" {
		return nil, errors.New("login: collector id must be non-empty")
	}

	t := NewTracker(collector, m.deps, m.locations(collector.ID), m.cfg)

	m.mu.Lock()
	prev := m.sessions[collector.ID]
	m.sessions[collector.ID] = t
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	log.Printf("collector login: collector=%s", collector.ID)
	return t, m.loadAndStart(ctx, t)
}

// Reload rebuilds the collector's schedule, e.g. after route changes, and
// starts tracking if it is idle.
func (m *SessionManager) Reload(ctx context.Context, collectorID string) (*Tracker, error) {
	t, err := m.Get(collectorID)
	if err != nil {
		return nil, err
	}
	return t, m.loadAndStart(ctx, t)
}

func (m *SessionManager) loadAndStart(ctx context.Context, t *Tracker) error {
	loadErr := t.LoadSchedule(ctx)

	if t.State() != StateIdle {
		return loadErr
	}

	err := t.Start(ctx)
	if errors.Is(err, ErrNoSchedule) {
		return loadErr
	}
	return errors.Join(loadErr, err)
}

// Logout tears down the collector's tracker, cancelling pending dwell tasks.
func (m *SessionManager) Logout(collectorID string) error {
	m.mu.Lock()
	t, ok := m.sessions[collectorID]
	delete(m.sessions, collectorID)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("logout %q: %w", collectorID, ErrNoSession)
	}

	t.Close()
	log.Printf("collector logout: collector=%s", collectorID)
	return nil
}

func (m *SessionManager) Get(collectorID string) (*Tracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.sessions[collectorID]
	if !ok {
		return nil, fmt.Errorf("collector %q: %w", collectorID, ErrNoSession)
	}
	return t, nil
}

// ManualCollect marks an area collected on behalf of the given collector.
func (m *SessionManager) ManualCollect(ctx context.Context, collectorID, area, routeNumber string) (domain.CollectionRecord, error) {
	t, err := m.Get(collectorID)
	if err != nil {
		return domain.CollectionRecord{}, err
	}
	return t.ManualCollect(ctx, area, routeNumber)
}

// PermissionChanged reacts to the device granting or revoking location access.
// Revocation suspends tracking; a grant restarts it.
func (m *SessionManager) PermissionChanged(ctx context.Context, collectorID string, granted bool) error {
	t, err := m.Get(collectorID)
	if err != nil {
		return err
	}

	if !granted {
		t.Suspend()
		return nil
	}

	switch t.State() {
	case StateIdle, StateSuspended:
		if err := t.Start(ctx); err != nil && !errors.Is(err, ErrNoSchedule) {
			return err
		}
	}
	return nil
}

// Shutdown closes every session.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Tracker)
	m.mu.Unlock()

	for _, t := range sessions {
		t.Close()
	}
}
