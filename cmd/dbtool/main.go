package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/areas"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/cache"
	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/repositories"
	"github.com/AlexisSev/gwaste-application-sub000/internal/config"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
)

// dbtool initialises the schema, seeds routes from SEED_PATH and loads the
// area coordinates from AREAS_PATH into the area cache.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var (
		conn    *sql.DB
		dialect db.Dialect
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		conn, err = db.Open(cfg.DatabaseURL)
		dialect = db.Postgres
	case config.DriverSQLite:
		conn, err = db.OpenSQLite(cfg.DBPath)
		dialect = db.SQLite
	default:
		log.Fatalf("dbtool: STORE_DRIVER=%s has no database", cfg.StoreDriver)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(conn, dialect, cfg.SeedPath, cfg.AreasPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(conn *sql.DB, dialect db.Dialect, seedPath, areasPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Println("Schema ready.")

	log.Println("Seeding routes...")
	n, err := repositories.SeedRoutesFromJSON(conn, dialect, seedPath)
	if err != nil {
		return fmt.Errorf("seeding routes failed: %w", err)
	}
	log.Printf("Seeded routes: n=%d", n)

	log.Println("Loading area coordinates...")
	loc, err := areas.LoadYAML(areasPath)
	if err != nil {
		return fmt.Errorf("loading areas failed: %w", err)
	}
	all := loc.All()
	if err := cache.NewSQLAreaCache(conn, dialect).PutMany(context.Background(), all); err != nil {
		return fmt.Errorf("caching areas failed: %w", err)
	}
	log.Printf("Cached areas: n=%d", len(all))

	return nil
}
