package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// CollectionStore is an append-only in-memory CollectionStore. Like the
// hosted store it does not enforce uniqueness.
type CollectionStore struct {
	mu      sync.RWMutex
	records []domain.CollectionRecord
	now     func() time.Time
}

func NewCollectionStore() *CollectionStore {
	return &CollectionStore{now: time.Now}
}

// WithClock overrides the store clock used for CollectedAt.
func (s *CollectionStore) WithClock(now func() time.Time) *CollectionStore {
	s.now = now
	return s
}

func (s *CollectionStore) Append(ctx context.Context, rec *domain.CollectionRecord) error {
	if rec == nil {
		return errors.New("memory collection store: record is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CollectedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

// Seed inserts records verbatim, keeping their CollectedAt. Used to load
// history that predates the running process.
func (s *CollectionStore) Seed(recs ...domain.CollectionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recs...)
}

func (s *CollectionStore) ListByCollectorAndDate(ctx context.Context, collectorID, date string) ([]domain.CollectionRecord, error) {
	return s.filter(func(r domain.CollectionRecord) bool {
		return r.CollectorID == collectorID && r.CollectedDate == date
	}), nil
}

func (s *CollectionStore) ListByCollector(ctx context.Context, collectorID string) ([]domain.CollectionRecord, error) {
	return s.filter(func(r domain.CollectionRecord) bool {
		return r.CollectorID == collectorID
	}), nil
}

// All returns every stored record in insertion order.
func (s *CollectionStore) All() []domain.CollectionRecord {
	return s.filter(func(domain.CollectionRecord) bool { return true })
}

func (s *CollectionStore) filter(keep func(domain.CollectionRecord) bool) []domain.CollectionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CollectionRecord, 0)
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
