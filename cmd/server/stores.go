package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/areas"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/cache"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/geocode"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/memory"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/notify"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/repositories"
	"github.com/AlexisSev/gwaste-application-sub000/internal/config"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// stores bundles the adapters selected by STORE_DRIVER.
type stores struct {
	routes      ports.RouteSource
	collections ports.CollectionStore
	sink        ports.NotificationSink
	locator     ports.AreaLocator

	closers []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close store: err=%v", err)
		}
	}
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	st := &stores{}

	var (
		areaCache areas.Cache
		sinks     notify.Fanout
	)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		routes := memory.NewRouteStore()
		if cfg.SeedOnStart && fileExists(cfg.SeedPath) {
			rows, err := repositories.ReadRoutesJSON(cfg.SeedPath)
			if err != nil {
				return nil, fmt.Errorf("open stores: %w", err)
			}
			routes.Replace(rows)
			log.Printf("memory routes seeded: n=%d path=%s", len(rows), cfg.SeedPath)
		}
		st.routes = routes
		st.collections = memory.NewCollectionStore()
		sinks = append(sinks, memory.NewNotificationLog())

	case config.DriverSQLite, config.DriverPostgres:
		conn, dialect, err := openSQL(cfg)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		st.closers = append(st.closers, conn.Close)

		if err := initAndSeed(conn, dialect, cfg); err != nil {
			st.Close()
			return nil, fmt.Errorf("open stores: %w", err)
		}

		st.routes = repositories.NewSQLRouteRepository(conn, dialect)
		st.collections = repositories.NewSQLCollectionStore(conn, dialect)
		sinks = append(sinks, repositories.NewSQLNotificationSink(conn, dialect))
		areaCache = cache.NewSQLAreaCache(conn, dialect)

	default:
		return nil, fmt.Errorf("open stores: unknown driver %q", cfg.StoreDriver)
	}

	if cfg.RedisURL != "" {
		rs, err := notify.NewRedisSink(ctx, cfg.RedisURL, cfg.NotificationStream)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open stores: %w", err)
		}
		st.closers = append(st.closers, rs.Close)
		sinks = append(sinks, rs)
	}
	st.sink = sinks

	locator, err := buildLocator(cfg, areaCache)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open stores: %w", err)
	}
	st.locator = locator

	return st, nil
}

func openSQL(cfg config.Config) (*sql.DB, db.Dialect, error) {
	if cfg.StoreDriver == config.DriverPostgres {
		conn, err := db.Open(cfg.DatabaseURL)
		return conn, db.Postgres, err
	}
	conn, err := db.OpenSQLite(cfg.DBPath)
	return conn, db.SQLite, err
}

// Initialize schema and seed demo routes on startup for local runs.
func initAndSeed(conn *sql.DB, dialect db.Dialect, cfg config.Config) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if !cfg.SeedOnStart || !fileExists(cfg.SeedPath) {
		return nil
	}

	n, err := repositories.SeedRoutesFromJSON(conn, dialect, cfg.SeedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	log.Printf("routes seeded: n=%d path=%s", n, cfg.SeedPath)
	return nil
}

// buildLocator chains the area cache, the areas file and, when an API key
// is configured, the OpenRouteService geocoder.
func buildLocator(cfg config.Config, areaCache areas.Cache) (ports.AreaLocator, error) {
	var sources []ports.AreaLocator

	if fileExists(cfg.AreasPath) {
		y, err := areas.LoadYAML(cfg.AreasPath)
		if err != nil {
			return nil, fmt.Errorf("build locator: %w", err)
		}
		sources = append(sources, y)
	} else {
		log.Printf("areas file not found: path=%s", cfg.AreasPath)
	}

	if cfg.ORSAPIKey != "" {
		ors, err := geocode.NewORSLocator(cfg.ORSAPIKey, geocode.WithCountry(cfg.ORSCountry))
		if err != nil {
			return nil, fmt.Errorf("build locator: %w", err)
		}
		sources = append(sources, ors)
	}

	if len(sources) == 0 && areaCache == nil {
		return nil, errors.New("build locator: no area source configured (set AREAS_PATH or ORS_API_KEY)")
	}

	return areas.NewChainLocator(areaCache, sources...), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
