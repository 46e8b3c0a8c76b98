package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
)

// SQLAreaCache is a SQL-backed cache mapping area names to the coordinates
// used as geofence targets. Area keys are trimmed but otherwise matched
// exactly.
type SQLAreaCache struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLAreaCache(conn *sql.DB, dialect db.Dialect) *SQLAreaCache {
	return &SQLAreaCache{DB: conn, Dialect: dialect}
}

// Fetch cached coordinates for the given areas. Missing areas are omitted.
func (s *SQLAreaCache) GetMany(
	ctx context.Context,
	areas []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "area.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("area cache: db is nil")
	}

	uniq := dedupe(areas)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	args := make([]any, 0, len(uniq))
	for _, a := range uniq {
		args = append(args, a)
	}

	q := s.Dialect.Rebind(fmt.Sprintf(`
	SELECT
		area,
		lon,
		lat
	FROM area_coordinates
	WHERE area IN (%s);
	`, db.Placeholders(len(uniq))))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get area cache: query area_coordinates table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var area string
		var lon, lat float64
		if err := rows.Scan(&area, &lon, &lat); err != nil {
			return nil, fmt.Errorf("get area cache: scan rows: %w", err)
		}
		out[area] = domain.Coordinates{Lon: lon, Lat: lat}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get area cache: row iteration: %w", err)
	}

	return out, nil
}

// Store area -> coordinate mappings, replacing existing rows.
func (s *SQLAreaCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "area.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("area cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert area cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO area_coordinates (area, lon, lat)
	VALUES (?, ?, ?)
	ON CONFLICT (area) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat;
	`))
	if err != nil {
		return fmt.Errorf("insert area cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for area, c := range results {
		area = strings.TrimSpace(area)
		if area == "" {
			return fmt.Errorf("insert area cache: empty area key")
		}
		if !c.Valid() {
			return fmt.Errorf("insert area cache area=%q: invalid coordinates %v", area, c)
		}

		if _, err := stmt.ExecContext(ctx, area, c.Lon, c.Lat); err != nil {
			return fmt.Errorf("insert area cache area=%q: %w", area, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert area cache commit: %w", err)
	}

	return nil
}

func dedupe(areas []string) []string {
	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(areas))
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}

		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}
	return uniq
}
