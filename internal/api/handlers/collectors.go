package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AlexisSev/gwaste-application-sub000/internal/adapters/location"
	"github.com/AlexisSev/gwaste-application-sub000/internal/api/dto"
	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
	"github.com/AlexisSev/gwaste-application-sub000/internal/services"
)

// CollectorHandler exposes the per-collector tracker to the collector app.
// The collector ID always comes from the URL; there is no ambient session.
type CollectorHandler struct {
	Sessions *services.SessionManager
	Devices  *location.Registry
}

// collectorID reads {id} and tags the request context for timing logs.
func collectorID(r *http.Request) (string, *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	return id, r.WithContext(obs.WithCollector(r.Context(), id))
}

func warnings(err error) []string {
	if err == nil {
		return nil
	}
	return strings.Split(err.Error(), "\n")
}

// Login starts (or restarts) a collector session: routes are loaded, the
// schedule is built and reconciled, and tracking starts when permitted.
func (h *CollectorHandler) Login(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	var req dto.LoginRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.Sessions.Login(r.Context(), domain.Collector{ID: id, Name: strings.TrimSpace(req.Name)})
	if t == nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.SessionResponse{Snapshot: t.Snapshot(), Warnings: warnings(err)})
}

func (h *CollectorHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	if err := h.Sessions.Logout(id); err != nil {
		writeServiceError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CollectorHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	t, err := h.Sessions.Get(id)
	if err != nil {
		writeServiceError(w, r, "schedule", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SessionResponse{Snapshot: t.Snapshot()})
}

// Reload rebuilds the schedule after route changes. History is not re-read
// when it was already loaded today.
func (h *CollectorHandler) Reload(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	t, err := h.Sessions.Reload(r.Context(), id)
	if t == nil {
		writeServiceError(w, r, "reload", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SessionResponse{Snapshot: t.Snapshot(), Warnings: warnings(err)})
}

// Collect is the manual "mark collected" override.
func (h *CollectorHandler) Collect(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	var req dto.ManualCollectRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	area := strings.TrimSpace(req.Area)
	if area == "" {
		writeError(w, r, http.StatusBadRequest, "area is required")
		return
	}

	rec, err := h.Sessions.ManualCollect(r.Context(), id, area, strings.TrimSpace(req.RouteNumber))
	if err != nil {
		writeServiceError(w, r, "manual collect", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.CollectionResponse{Record: rec})
}

// Position accepts a fix from the collector's device.
func (h *CollectorHandler) Position(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	var req dto.PositionRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, r, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	sample := domain.PositionSample{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if req.CapturedAt != nil {
		sample.CapturedAt = *req.CapturedAt
	}

	if err := h.Devices.Device(id).Push(sample); err != nil {
		writeServiceError(w, r, "push position", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Permission records the device's location permission and suspends or
// resumes tracking accordingly.
func (h *CollectorHandler) Permission(w http.ResponseWriter, r *http.Request) {
	id, r := collectorID(r)

	var req dto.PermissionRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Granted == nil {
		writeError(w, r, http.StatusBadRequest, "granted is required")
		return
	}
	granted := *req.Granted

	h.Devices.Device(id).SetPermission(granted)

	res := dto.PermissionResponse{Granted: granted}
	err := h.Sessions.PermissionChanged(r.Context(), id, granted)
	switch {
	case err == nil:
		if t, gerr := h.Sessions.Get(id); gerr == nil {
			res.State = t.State()
		}
	case statusFor(err) == http.StatusNotFound:
		// Recorded for the next login.
	default:
		writeServiceError(w, r, "permission", err)
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}
