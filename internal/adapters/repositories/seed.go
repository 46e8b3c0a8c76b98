package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
)

// ReadRoutesJSON loads and validates a JSON array of routes.
func ReadRoutesJSON(jsonPath string) ([]domain.Route, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read routes: read %q: %w", jsonPath, err)
	}

	var data []domain.Route
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("read routes: parse json: %w", err)
	}

	rows := make([]domain.Route, 0, len(data))
	for i, r := range data {
		r.Driver = strings.TrimSpace(r.Driver)
		r.RouteNumber = strings.TrimSpace(r.RouteNumber)
		if r.Driver == "" || r.RouteNumber == "" {
			return nil, fmt.Errorf("read routes: item at index %d: driver and route are required", i+1)
		}
		if len(r.Areas) == 0 {
			return nil, fmt.Errorf("read routes: route %q at index %d: areas cannot be empty", r.RouteNumber, i+1)
		}
		rows = append(rows, r)
	}

	return rows, nil
}

// Populate the routes table from a JSON array of routes. Existing rows with
// the same (driver, route) key are replaced.
func SeedRoutesFromJSON(conn *sql.DB, dialect db.Dialect, jsonPath string) (int, error) {
	rows, err := ReadRoutesJSON(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed routes: %w", err)
	}

	repo := NewSQLRouteRepository(conn, dialect)
	if err := repo.Upsert(rows...); err != nil {
		return 0, fmt.Errorf("seed routes: %w", err)
	}

	return len(rows), nil
}
