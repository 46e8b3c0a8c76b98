package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// CollectedSet maps each area collected today to its first collection time.
type CollectedSet map[string]time.Time

// Add records area as collected at t unless it is already present.
func (s CollectedSet) Add(area string, t time.Time) {
	if _, ok := s[area]; ok {
		return
	}
	s[area] = t
}

func (s CollectedSet) Has(area string) bool {
	_, ok := s[area]
	return ok
}

// Areas returns the collected area names in lexical order.
func (s CollectedSet) Areas() []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Reconciler rebuilds today's CollectedSet for a collector from the store.
// Duplicate records collapse by area; the store is never asked for uniqueness.
type Reconciler struct {
	store ports.CollectionStore
	clock Clock
	group singleflight.Group
}

func NewReconciler(store ports.CollectionStore, clock Clock) *Reconciler {
	if clock == nil {
		clock = SystemClock()
	}
	return &Reconciler{store: store, clock: clock}
}

// LoadTodaysCollections queries the collector's records dated today. When that
// yields nothing it re-queries by collector alone and keeps records whose store
// timestamp falls on today, which covers records without a collectedDate.
//
// Concurrent loads for the same collector share a single store round trip.
// On a read failure the returned set is empty and the error wraps ErrStoreRead.
func (r *Reconciler) LoadTodaysCollections(ctx context.Context, collectorID string) (CollectedSet, error) {
	if strings.TrimSpace(collectorID) == "" {
		return CollectedSet{}, fmt.Errorf("load todays collections: %w: collector id must be non-empty", ErrStoreRead)
	}

	v, err, _ := r.group.Do(collectorID, func() (any, error) {
		return r.load(ctx, collectorID)
	})
	if err != nil {
		log.Printf("load todays collections failed: collector=%s err=%v", collectorID, err)
		return CollectedSet{}, err
	}

	// Each caller gets its own copy; the shared result must not be mutated.
	shared := v.(CollectedSet)
	out := make(CollectedSet, len(shared))
	for k, t := range shared {
		out[k] = t
	}
	return out, nil
}

func (r *Reconciler) load(ctx context.Context, collectorID string) (_ CollectedSet, err error) {
	ctx = obs.WithCollector(ctx, collectorID)
	defer obs.Time(ctx, "reconciler.LoadTodaysCollections")(&err)

	now := r.clock.Now().Local()
	today := now.Format(domain.DateLayout)

	recs, err := r.store.ListByCollectorAndDate(ctx, collectorID, today)
	if err != nil {
		return nil, fmt.Errorf("load todays collections: by date: %w: %w", ErrStoreRead, err)
	}

	if len(recs) == 0 {
		all, err := r.store.ListByCollector(ctx, collectorID)
		if err != nil {
			return nil, fmt.Errorf("load todays collections: by collector: %w: %w", ErrStoreRead, err)
		}

		recs = make([]domain.CollectionRecord, 0, len(all))
		for _, rec := range all {
			if rec.CollectedAt.IsZero() {
				continue
			}
			if rec.CollectedAt.In(now.Location()).Format(domain.DateLayout) == today {
				recs = append(recs, rec)
			}
		}
	}

	set := make(CollectedSet, len(recs))
	for _, rec := range recs {
		area := strings.TrimSpace(rec.Area)
		if area == "" {
			continue
		}
		set.Add(area, rec.CollectedAt)
	}

	return set, nil
}

// ApplyCollected marks every entry whose location is in set as collected and
// returns how many entries were marked. Applying the same set twice is a no-op
// the second time in effect.
func ApplyCollected(entries []domain.ScheduleEntry, set CollectedSet) int {
	marked := 0
	for i := range entries {
		at, ok := set[entries[i].Location]
		if !ok {
			continue
		}
		entries[i].MarkCollected(at)
		marked++
	}
	return marked
}
