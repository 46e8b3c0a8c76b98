package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

func newTestLocator(t *testing.T, h http.HandlerFunc) *ORSLocator {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	loc, err := NewORSLocator("test-key", WithBaseURL(srv.URL), WithCountry("PH"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	loc.backoff = 0
	return loc
}

func TestNewORSLocatorRequiresKey(t *testing.T) {
	_, err := NewORSLocator("")
	require.Error(t, err)
}

func TestLocateResolvesAndOmitsUnknown(t *testing.T) {
	var calls atomic.Int32
	loc := newTestLocator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "PH", r.URL.Query().Get("boundary.country"))

		switch r.URL.Query().Get("text") {
		case "Bagong Silang":
			_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[121.05,14.65]}}]}`))
		default:
			_, _ = w.Write([]byte(`{"features":[]}`))
		}
	})

	got, err := loc.Locate(context.Background(), []string{"Bagong  Silang", "Bagong Silang", "Atlantis"})
	require.NoError(t, err)

	assert.Equal(t, map[string]domain.Coordinates{
		"Bagong  Silang": {Lon: 121.05, Lat: 14.65},
		"Bagong Silang":  {Lon: 121.05, Lat: 14.65},
	}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLocateRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	loc := newTestLocator(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[121.0,14.6]}}]}`))
	})

	got, err := loc.Locate(context.Background(), []string{"Poblacion"})
	require.NoError(t, err)
	assert.Contains(t, got, "Poblacion")
	assert.Equal(t, int32(3), calls.Load())
}

func TestLocateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	loc := newTestLocator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})

	_, err := loc.Locate(context.Background(), []string{"Poblacion"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLocateIgnoresMalformedCoordinates(t *testing.T) {
	loc := newTestLocator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[500,14.6]}}]}`))
	})

	got, err := loc.Locate(context.Background(), []string{"Poblacion"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
