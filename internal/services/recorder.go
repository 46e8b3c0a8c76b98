package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// RecordRequest describes one collection to persist.
type RecordRequest struct {
	Area        string
	RouteNumber string
	Collector   domain.Collector
	// Collector position at the time of recording, if known.
	Position *domain.Coordinates
	Type     domain.CollectionType
}

// Recorder appends collection events and dispatches resident notifications.
// It holds no in-memory schedule state; the tracker applies successful
// recordings to its own state.
type Recorder struct {
	store ports.CollectionStore
	sink  ports.NotificationSink
	clock Clock
}

func NewRecorder(store ports.CollectionStore, sink ports.NotificationSink, clock Clock) *Recorder {
	if clock == nil {
		clock = SystemClock()
	}
	return &Recorder{store: store, sink: sink, clock: clock}
}

// Record appends one CollectionRecord dated with the local calendar day and,
// once the write succeeded, notifies residents that the area was collected.
//
// A failed write is logged and returned wrapped in ErrStoreWrite; nothing is
// notified and the caller must leave its state untouched so the area stays
// eligible for another attempt.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (domain.CollectionRecord, error) {
	area := strings.TrimSpace(req.Area)
	if area == "" {
		return domain.CollectionRecord{}, errors.New("record collection: area must be non-empty")
	}
	if req.Collector.ID == "" {
		return domain.CollectionRecord{}, errors.New("record collection: collector id must be non-empty")
	}

	typ := req.Type
	if typ == "" {
		typ = domain.CollectionManual
	}

	now := r.clock.Now()
	rec := domain.CollectionRecord{
		Area:           area,
		RouteNumber:    req.RouteNumber,
		CollectorID:    req.Collector.ID,
		CollectorName:  req.Collector.Name,
		CollectedDate:  now.Local().Format(domain.DateLayout),
		Location:       req.Position,
		Status:         domain.StatusCompleted,
		CollectionType: typ,
		Timestamp:      now.UnixMilli(),
	}

	if err := r.store.Append(ctx, &rec); err != nil {
		log.Printf("record collection failed: area=%q route=%s collector=%s type=%s err=%v",
			area, req.RouteNumber, req.Collector.ID, typ, err)
		return domain.CollectionRecord{}, fmt.Errorf("record collection: %w: %w", ErrStoreWrite, err)
	}

	log.Printf("collection recorded: area=%q route=%s collector=%s type=%s id=%s",
		area, req.RouteNumber, req.Collector.ID, typ, rec.ID)

	r.notify(ctx, area, req.RouteNumber, req.Collector.ID, domain.NotifyCollected)

	return rec, nil
}

// NotifyResidents writes one notification for the area. Best effort: failures
// are logged and otherwise ignored.
func (r *Recorder) NotifyResidents(ctx context.Context, area string, status domain.NotificationStatus) {
	r.notify(ctx, area, "", "", status)
}

func (r *Recorder) notify(ctx context.Context, area, routeNumber, collectorID string, status domain.NotificationStatus) {
	if r.sink == nil {
		return
	}

	ev := domain.NotificationEvent{
		Area:        area,
		RouteNumber: routeNumber,
		CollectorID: collectorID,
		Status:      status,
		Message:     notificationMessage(area, status),
		CreatedAt:   r.clock.Now(),
	}

	if err := r.sink.Publish(ctx, ev); err != nil {
		log.Printf("notify residents failed: area=%q status=%s err=%v", area, status, err)
	}
}

func notificationMessage(area string, status domain.NotificationStatus) string {
	switch status {
	case domain.NotifyApproaching:
		return fmt.Sprintf("The garbage truck is approaching %s. Please bring out your waste.", area)
	case domain.NotifyCollected:
		return fmt.Sprintf("Waste in %s has been collected.", area)
	default:
		return fmt.Sprintf("Collection update for %s: %s", area, status)
	}
}
