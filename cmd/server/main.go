package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/location"
	"github.com/AlexisSev/gwaste-application-sub000/internal/api"
	"github.com/AlexisSev/gwaste-application-sub000/internal/config"
	"github.com/AlexisSev/gwaste-application-sub000/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL or memory stores, Redis, area locators)
// behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	clock := services.SystemClock()
	deps := services.TrackerDeps{
		Routes:     st.routes,
		Recorder:   services.NewRecorder(st.collections, st.sink, clock),
		Reconciler: services.NewReconciler(st.collections, clock),
		Locator:    st.locator,
		Clock:      clock,
	}

	devices := location.NewRegistry()
	sessions := services.NewSessionManager(deps, devices.Provider, cfg.Tracker())
	defer sessions.Shutdown()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(sessions, devices),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s store=%s", cfg.Port, cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server stopped: err=%v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: err=%v", err)
		}
	}
}
