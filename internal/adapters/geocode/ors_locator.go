package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
)

const defaultBaseURL = "https://api.openrouteservice.org"

// ORSLocator resolves area names through the OpenRouteService search API.
// It is the last resort of the area chain: results are only as good as the
// area names, so operators should prefer the areas file.
//
// The locator is safe for concurrent use.
type ORSLocator struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
	backoff time.Duration
}

// Option customises an ORSLocator.
type Option func(*ORSLocator)

// WithBaseURL points the locator at another server, e.g. a self-hosted ORS.
func WithBaseURL(u string) Option {
	return func(o *ORSLocator) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithCountry restricts results to an ISO 3166 country code.
func WithCountry(code string) Option {
	return func(o *ORSLocator) { o.country = code }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSLocator) { o.session = c }
}

func NewORSLocator(apiKey string, opts ...Option) (*ORSLocator, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	o := &ORSLocator{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// normalize collapses whitespace so equivalent names share one lookup.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Locate geocodes each area individually. Areas without a usable result are
// omitted; transport failures abort the call.
func (o *ORSLocator) Locate(ctx context.Context, areas []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Locate")(&err)

	endpoint := o.baseURL + "/geocode/search"

	resolved := make(map[string]*domain.Coordinates, len(areas))
	out := make(map[string]domain.Coordinates)
	for _, a := range areas {
		norm := normalize(a)
		if norm == "" {
			continue
		}
		if c, ok := resolved[norm]; ok {
			if c != nil {
				out[a] = *c
			}
			continue
		}

		coords, found, err := o.geocodeOne(ctx, endpoint, norm)
		if err != nil {
			return out, fmt.Errorf("geocode %q: %w", a, err)
		}
		if !found {
			resolved[norm] = nil
			log.Printf("op=ors.Locate area=%q result=none", a)
			continue
		}
		resolved[norm] = &coords
		out[a] = coords
	}

	return out, nil
}

func (o *ORSLocator) geocodeOne(ctx context.Context, endpoint, text string) (domain.Coordinates, bool, error) {
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", text)
		q.Set("size", "1")
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, false, nil
	}

	raw := decoded.Features[0].Geometry.Coordinates
	if len(raw) != 2 {
		return domain.Coordinates{}, false, nil
	}

	c := domain.Coordinates{Lon: raw[0], Lat: raw[1]}
	if !c.Valid() {
		return domain.Coordinates{}, false, nil
	}
	return c, true, nil
}
