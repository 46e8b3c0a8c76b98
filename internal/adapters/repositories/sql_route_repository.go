package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
)

// SQL-backed implementation of the RouteSource port. Areas are stored as a
// JSON array so the ordering that drives slicing survives the round trip.
type SQLRouteRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLRouteRepository(conn *sql.DB, dialect db.Dialect) *SQLRouteRepository {
	return &SQLRouteRepository{DB: conn, Dialect: dialect}
}

// Return all routes whose driver is the given collector.
func (s *SQLRouteRepository) ListRoutesByDriver(ctx context.Context, driverID string) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "routes.ListRoutesByDriver")(&err)

	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	query := s.Dialect.Rebind(`
	SELECT
		driver,
		route_number,
		areas,
		start_time,
		end_time,
		type,
		frequency,
		day_off
	FROM routes
	WHERE driver = ?
	ORDER BY route_number;
	`)
	rows, err := s.DB.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.Route, 0, 8)
	for rows.Next() {
		var r domain.Route
		var areas string
		if err := rows.Scan(&r.Driver, &r.RouteNumber, &areas, &r.Time, &r.EndTime, &r.Type, &r.Frequency, &r.DayOff); err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(areas), &r.Areas); err != nil {
			return nil, fmt.Errorf("list routes: decode areas of route %q: %w", r.RouteNumber, err)
		}
		routes = append(routes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

// Upsert inserts or replaces routes keyed by (driver, route number).
func (s *SQLRouteRepository) Upsert(routes ...domain.Route) error {
	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("upsert routes: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(s.Dialect.Rebind(`
	INSERT INTO routes (
		driver,
		route_number,
		areas,
		start_time,
		end_time,
		type,
		frequency,
		day_off
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (driver, route_number) DO UPDATE
	SET areas = EXCLUDED.areas,
		start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time,
		type = EXCLUDED.type,
		frequency = EXCLUDED.frequency,
		day_off = EXCLUDED.day_off;
	`))
	if err != nil {
		return fmt.Errorf("upsert routes: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range routes {
		areas, err := json.Marshal(r.Areas)
		if err != nil {
			return fmt.Errorf("upsert routes: encode areas of route %q: %w", r.RouteNumber, err)
		}
		if _, err := stmt.Exec(r.Driver, r.RouteNumber, string(areas), r.Time, r.EndTime, r.Type, r.Frequency, r.DayOff); err != nil {
			return fmt.Errorf("upsert routes: insert route=%q driver=%q: %w", r.RouteNumber, r.Driver, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert routes: commit tx: %w", err)
	}

	return nil
}
