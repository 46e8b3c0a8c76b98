package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/location"
	"github.com/AlexisSev/gwaste-application-sub000/internal/api/handlers"
	"github.com/AlexisSev/gwaste-application-sub000/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(sessions *services.SessionManager, devices *location.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	collectors := &handlers.CollectorHandler{Sessions: sessions, Devices: devices}

	r.Get("/health", handlers.Health)

	r.Route("/collectors/{id}", func(r chi.Router) {
		r.Post("/session", collectors.Login)
		r.Delete("/session", collectors.Logout)
		r.Get("/schedule", collectors.Schedule)
		r.Post("/schedule/reload", collectors.Reload)
		r.Post("/collections", collectors.Collect)
		r.Post("/positions", collectors.Position)
		r.Put("/permission", collectors.Permission)
	})

	return r
}
