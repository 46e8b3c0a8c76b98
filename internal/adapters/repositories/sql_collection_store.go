package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
)

// Fixed-width UTC layout so collected_at sorts lexicographically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQL-backed, append-only implementation of the CollectionStore port.
// Uniqueness is not enforced; readers collapse duplicates.
type SQLCollectionStore struct {
	DB      *sql.DB
	Dialect db.Dialect
	now     func() time.Time
}

func NewSQLCollectionStore(conn *sql.DB, dialect db.Dialect) *SQLCollectionStore {
	return &SQLCollectionStore{DB: conn, Dialect: dialect, now: time.Now}
}

// WithClock overrides the clock used to stamp collected_at.
func (s *SQLCollectionStore) WithClock(now func() time.Time) *SQLCollectionStore {
	s.now = now
	return s
}

// Append writes one record, assigning its ID and store timestamp.
func (s *SQLCollectionStore) Append(ctx context.Context, rec *domain.CollectionRecord) (err error) {
	defer obs.Time(ctx, "collections.Append")(&err)

	if s.DB == nil {
		return errors.New("collection store: DB is nil")
	}
	if rec == nil {
		return errors.New("collection store: record is nil")
	}

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	collectedAt := s.now().UTC()

	var lat, lng sql.NullFloat64
	if rec.Location != nil {
		lat = sql.NullFloat64{Float64: rec.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: rec.Location.Lon, Valid: true}
	}

	query := s.Dialect.Rebind(`
	INSERT INTO collections (
		id,
		area,
		route_number,
		collector_id,
		collector_name,
		collected_at,
		collected_date,
		lat,
		lng,
		status,
		collection_type,
		ts
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = s.DB.ExecContext(ctx, query,
		id,
		rec.Area,
		rec.RouteNumber,
		rec.CollectorID,
		rec.CollectorName,
		collectedAt.Format(timestampLayout),
		rec.CollectedDate,
		lat,
		lng,
		rec.Status,
		string(rec.CollectionType),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append collection: insert area=%q collector=%q: %w", rec.Area, rec.CollectorID, err)
	}

	rec.ID = id
	rec.CollectedAt = collectedAt
	return nil
}

func (s *SQLCollectionStore) ListByCollectorAndDate(
	ctx context.Context,
	collectorID string,
	date string,
) (_ []domain.CollectionRecord, err error) {
	defer obs.Time(ctx, "collections.ListByCollectorAndDate")(&err)

	return s.list(ctx, "collector_id = ? AND collected_date = ?", collectorID, date)
}

func (s *SQLCollectionStore) ListByCollector(ctx context.Context, collectorID string) (_ []domain.CollectionRecord, err error) {
	defer obs.Time(ctx, "collections.ListByCollector")(&err)

	return s.list(ctx, "collector_id = ?", collectorID)
}

func (s *SQLCollectionStore) list(ctx context.Context, where string, args ...any) ([]domain.CollectionRecord, error) {
	if s.DB == nil {
		return nil, errors.New("collection store: DB is nil")
	}

	query := s.Dialect.Rebind(`
	SELECT
		id,
		area,
		route_number,
		collector_id,
		collector_name,
		collected_at,
		collected_date,
		lat,
		lng,
		status,
		collection_type,
		ts
	FROM collections
	WHERE ` + where + `
	ORDER BY collected_at, id;
	`)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collections: query collections table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CollectionRecord, 0, 16)
	for rows.Next() {
		var (
			r           domain.CollectionRecord
			collectedAt string
			ctype       string
			lat, lng    sql.NullFloat64
		)
		err := rows.Scan(
			&r.ID,
			&r.Area,
			&r.RouteNumber,
			&r.CollectorID,
			&r.CollectorName,
			&collectedAt,
			&r.CollectedDate,
			&lat,
			&lng,
			&r.Status,
			&ctype,
			&r.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("list collections: scan row: %w", err)
		}

		r.CollectedAt, err = time.Parse(time.RFC3339Nano, collectedAt)
		if err != nil {
			return nil, fmt.Errorf("list collections: parse collected_at of %q: %w", r.ID, err)
		}
		r.CollectionType = domain.CollectionType(ctype)
		if lat.Valid && lng.Valid {
			r.Location = &domain.Coordinates{Lat: lat.Float64, Lon: lng.Float64}
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collections: row iteration: %w", err)
	}

	return out, nil
}
