package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the tracker tables. The DDL is shared by SQLite and
// Postgres, so only portable column types are used.
func InitSchema(conn *sql.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		driver TEXT NOT NULL,
		route_number TEXT NOT NULL,
		areas TEXT NOT NULL,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL DEFAULT '',
		day_off TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (driver, route_number)
	);
	`

	createCollectionsQuery := `
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		area TEXT NOT NULL,
		route_number TEXT NOT NULL DEFAULT '',
		collector_id TEXT NOT NULL,
		collector_name TEXT NOT NULL DEFAULT '',
		collected_at TEXT NOT NULL,
		collected_date TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		status TEXT NOT NULL,
		collection_type TEXT NOT NULL,
		ts BIGINT NOT NULL
	);
	`

	createCollectionsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_collections_collector_date
	ON collections(collector_id, collected_date);
	`

	createNotificationsQuery := `
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		area TEXT NOT NULL,
		route_number TEXT NOT NULL DEFAULT '',
		collector_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	createAreaCoordinatesQuery := `
	CREATE TABLE IF NOT EXISTS area_coordinates (
		area TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`

	statements := []string{
		createRoutesQuery,
		createCollectionsQuery,
		createCollectionsIndexQuery,
		createNotificationsQuery,
		createAreaCoordinatesQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
