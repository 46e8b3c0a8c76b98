package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

func startedTracker(t *testing.T, f *fixture) *Tracker {
	t.Helper()

	tr := f.tracker()
	require.NoError(t, tr.LoadSchedule(context.Background()))
	require.NoError(t, tr.Start(context.Background()))
	require.Equal(t, StateTracking, tr.State())
	return tr
}

func TestTrackerAutomaticCollectionAfterDwell(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	assert.Equal(t, DefaultTrackerConfig().Watch, f.location.opts)

	f.location.push(north(areaA, 50))

	assert.Len(t, f.notificationsWith(domain.NotifyApproaching), 1)
	assert.Equal(t, 1, tr.Snapshot().PendingDwell)
	assert.Empty(t, f.store.All(), "nothing recorded before the dwell elapses")

	// Still inside: no second approaching notice, no second dwell.
	f.location.push(north(areaA, 40))
	assert.Len(t, f.notificationsWith(domain.NotifyApproaching), 1)

	f.clock.Advance(30 * time.Second)

	recs := f.store.All()
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Area)
	assert.Equal(t, domain.CollectionAutomatic, recs[0].CollectionType)
	require.NotNil(t, recs[0].Location)

	snap := tr.Snapshot()
	assert.Equal(t, []string{"A"}, snap.Collected)
	assert.True(t, snap.Schedule[0].Collected)
	assert.False(t, snap.Schedule[1].Collected)
	assert.Len(t, f.notificationsWith(domain.NotifyCollected), 1)
}

func TestTrackerOutsideFenceDoesNothing(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 150))
	f.clock.Advance(time.Minute)

	assert.Empty(t, f.notes.Events())
	assert.Empty(t, f.store.All())
	assert.Equal(t, 0, tr.Snapshot().PendingDwell)
}

func TestTrackerManualCollectBeforeDwellRecordsOnce(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	f.clock.Advance(5 * time.Second)

	rec, err := tr.ManualCollect(context.Background(), "A", "R1")
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionManual, rec.CollectionType)

	f.clock.Advance(30 * time.Second)

	assert.Len(t, f.store.All(), 1)
	assert.Equal(t, 0, tr.Snapshot().PendingDwell)
}

func TestTrackerDwellFireRechecksCollectedSet(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	_, err := tr.ManualCollect(context.Background(), "A", "")
	require.NoError(t, err)

	// A timer that already fired and raced the manual mark.
	tr.fireDwell(dwellKey{area: "A", routeNumber: "R1"}, tr.generation)

	assert.Len(t, f.store.All(), 1)
}

func TestTrackerManualCollectErrors(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	_, err := tr.ManualCollect(context.Background(), "Z", "")
	assert.True(t, errors.Is(err, ErrEntryNotFound))

	_, err = tr.ManualCollect(context.Background(), "A", "R9")
	assert.True(t, errors.Is(err, ErrEntryNotFound))

	_, err = tr.ManualCollect(context.Background(), "A", "")
	require.NoError(t, err)

	_, err = tr.ManualCollect(context.Background(), "A", "")
	assert.True(t, errors.Is(err, ErrAlreadyCollected))
	assert.Len(t, f.store.All(), 1)
}

func TestTrackerWriteFailureLeavesAreaEligible(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.store.setAppendErr(errors.New("offline"))
	_, err := tr.ManualCollect(context.Background(), "B", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreWrite))
	assert.Empty(t, tr.Snapshot().Collected)
	assert.False(t, tr.Snapshot().Schedule[1].Collected)

	f.store.setAppendErr(nil)
	_, err = tr.ManualCollect(context.Background(), "B", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, tr.Snapshot().Collected)
}

func TestTrackerPermissionDenied(t *testing.T) {
	f := newFixture(routeAB())
	f.location.granted = false

	tr := f.tracker()
	require.NoError(t, tr.LoadSchedule(context.Background()))

	err := tr.Start(context.Background())
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	snap := tr.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.NotEmpty(t, snap.Alert)
	assert.Nil(t, f.location.sub, "no subscription without permission")

	// Manual marking still works without location access.
	_, err = tr.ManualCollect(context.Background(), "A", "")
	assert.NoError(t, err)
}

func TestTrackerStartRequiresSchedule(t *testing.T) {
	f := newFixture()
	tr := f.tracker()
	require.NoError(t, tr.LoadSchedule(context.Background()))

	assert.True(t, errors.Is(tr.Start(context.Background()), ErrNoSchedule))
	assert.Equal(t, 0, f.location.requests)
}

func TestTrackerCloseCancelsPendingDwell(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	require.Equal(t, 1, tr.Snapshot().PendingDwell)

	tr.Close()
	f.clock.Advance(time.Minute)

	assert.Empty(t, f.store.All())
	assert.True(t, f.location.sub.stopped)
	assert.Equal(t, StateIdle, tr.State())
	assert.Empty(t, tr.Snapshot().Schedule)
}

func TestTrackerSuspendAndResume(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	tr.Suspend()

	assert.Equal(t, StateSuspended, tr.State())
	assert.Equal(t, 0, tr.Snapshot().PendingDwell)
	assert.Len(t, tr.Snapshot().Schedule, 2, "schedule survives suspension")

	f.clock.Advance(time.Minute)
	assert.Empty(t, f.store.All())

	require.NoError(t, tr.Start(context.Background()))
	assert.Equal(t, StateTracking, tr.State())

	f.location.push(north(areaA, 20))
	f.clock.Advance(30 * time.Second)
	assert.Len(t, f.store.All(), 1)
}

func TestTrackerReconcilesOnceAcrossReloads(t *testing.T) {
	f := newFixture(routeAB())
	at := f.clock.Now().Add(-time.Hour)
	f.store.Seed(
		domain.CollectionRecord{Area: "A", CollectorID: "c1", CollectedDate: "2026-10-17", CollectedAt: at},
		domain.CollectionRecord{Area: "A", CollectorID: "c1", CollectedDate: "2026-10-17", CollectedAt: at.Add(time.Second)},
	)

	tr := f.tracker()
	require.NoError(t, tr.LoadSchedule(context.Background()))

	snap := tr.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, []string{"A"}, snap.Collected)
	assert.True(t, snap.Schedule[0].Collected)
	require.NotNil(t, snap.Schedule[0].CollectedAt)
	assert.True(t, snap.Schedule[0].CollectedAt.Equal(at))

	// Route change rebuilds entries without another history read.
	f.routes.Replace([]domain.Route{routeAB(), {Driver: "c1", RouteNumber: "R2", Areas: []string{"A"}, Time: "13:00", EndTime: "14:00"}})
	require.NoError(t, tr.LoadSchedule(context.Background()))

	snap = tr.Snapshot()
	assert.Len(t, snap.Schedule, 3)
	assert.Equal(t, 1, f.store.byDate)
	for _, e := range snap.Schedule {
		if e.Location == "A" {
			assert.True(t, e.Collected, "route %s", e.RouteNumber)
		}
	}
}

func TestTrackerCollectedAreaNotFencedAgain(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	_, err := tr.ManualCollect(context.Background(), "A", "")
	require.NoError(t, err)

	f.location.push(north(areaA, 10))

	assert.Empty(t, f.notificationsWith(domain.NotifyApproaching))
	assert.Equal(t, 0, tr.Snapshot().PendingDwell)
}

func TestTrackerEmptyScheduleStopsTracking(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.routes.Replace(nil)
	require.NoError(t, tr.LoadSchedule(context.Background()))

	assert.Equal(t, StateIdle, tr.State())
	assert.True(t, f.location.sub.stopped)
}

func TestTrackerInitialPositionIsEvaluated(t *testing.T) {
	f := newFixture(routeAB())
	initial := north(areaB, 30)
	f.location.current = &initial

	tr := startedTracker(t, f)

	approaching := f.notificationsWith(domain.NotifyApproaching)
	require.Len(t, approaching, 1)
	assert.Equal(t, "B", approaching[0].Area)
	assert.NotNil(t, tr.Snapshot().Position)
}

func TestTrackerReloadCancelsDwellForRemovedArea(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	require.Equal(t, 1, tr.Snapshot().PendingDwell)

	f.routes.Replace([]domain.Route{{Driver: "c1", RouteNumber: "R1", Areas: []string{"B"}, Time: "07:00", EndTime: "08:00"}})
	require.NoError(t, tr.LoadSchedule(context.Background()))

	assert.Equal(t, StateTracking, tr.State())
	assert.Equal(t, 0, tr.Snapshot().PendingDwell)

	f.clock.Advance(30 * time.Second)
	assert.Empty(t, f.store.All())
	assert.Empty(t, f.notificationsWith(domain.NotifyCollected))
}

func TestTrackerReloadCancelsDwellWhenRouteNumberChanges(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	require.Equal(t, 1, tr.Snapshot().PendingDwell)

	f.routes.Replace([]domain.Route{
		{Driver: "c1", RouteNumber: "R1", Areas: []string{"B"}, Time: "07:00", EndTime: "08:00"},
		{Driver: "c1", RouteNumber: "R2", Areas: []string{"A"}, Time: "09:00", EndTime: "10:00"},
	})
	require.NoError(t, tr.LoadSchedule(context.Background()))

	assert.Equal(t, 0, tr.Snapshot().PendingDwell)

	f.clock.Advance(30 * time.Second)
	assert.Empty(t, f.store.All())

	// The next fix inside A arms a dwell under the new route.
	f.location.push(north(areaA, 40))
	require.Equal(t, 1, tr.Snapshot().PendingDwell)
	f.clock.Advance(30 * time.Second)

	recs := f.store.All()
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Area)
	assert.Equal(t, "R2", recs[0].RouteNumber)
}

func TestTrackerReloadKeepsDwellForUnchangedEntry(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.location.push(north(areaA, 50))
	require.NoError(t, tr.LoadSchedule(context.Background()))
	assert.Equal(t, 1, tr.Snapshot().PendingDwell)

	f.clock.Advance(30 * time.Second)
	assert.Len(t, f.store.All(), 1)
}

func TestTrackerDwellFireSkipsUnscheduledEntry(t *testing.T) {
	f := newFixture(routeAB())
	tr := startedTracker(t, f)

	f.routes.Replace([]domain.Route{{Driver: "c1", RouteNumber: "R1", Areas: []string{"B"}, Time: "07:00", EndTime: "08:00"}})
	require.NoError(t, tr.LoadSchedule(context.Background()))

	tr.mu.Lock()
	gen := tr.generation
	tr.mu.Unlock()
	tr.fireDwell(dwellKey{area: "A", routeNumber: "R1"}, gen)

	assert.Empty(t, f.store.All())
}

func TestTrackerApproachingNoticeCarriesRouteAndCollector(t *testing.T) {
	f := newFixture(routeAB())
	startedTracker(t, f)

	f.location.push(north(areaA, 50))

	approaching := f.notificationsWith(domain.NotifyApproaching)
	require.Len(t, approaching, 1)
	assert.Equal(t, "A", approaching[0].Area)
	assert.Equal(t, "R1", approaching[0].RouteNumber)
	assert.Equal(t, "c1", approaching[0].CollectorID)
}
