package ports

import (
	"context"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Port: append-only persistence for collection events.
//
// The store does not enforce uniqueness. Append assigns rec.ID (when empty) and
// rec.CollectedAt from the store's own clock.
type CollectionStore interface {
	Append(ctx context.Context, rec *domain.CollectionRecord) error
	// Records for one collector on one calendar date, oldest first.
	ListByCollectorAndDate(ctx context.Context, collectorID string, date string) ([]domain.CollectionRecord, error)
	// All records for one collector, oldest first. Used for records written
	// before collectedDate existed.
	ListByCollector(ctx context.Context, collectorID string) ([]domain.CollectionRecord, error)
}
