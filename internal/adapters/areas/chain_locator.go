package areas

import (
	"context"
	"log"
	"strings"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// Cache is the persistent area -> coordinates store consulted first.
type Cache interface {
	GetMany(ctx context.Context, areas []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// ChainLocator resolves areas from the cache, then from each source in
// order for whatever is still missing. Fresh results are written back to
// the cache. Source and cache failures are logged and skipped so a partial
// answer is still returned; areas nobody can resolve are left out.
type ChainLocator struct {
	cache   Cache
	sources []ports.AreaLocator
}

// NewChainLocator builds a locator; cache may be nil.
func NewChainLocator(cache Cache, sources ...ports.AreaLocator) *ChainLocator {
	return &ChainLocator{cache: cache, sources: sources}
}

func (c *ChainLocator) Locate(ctx context.Context, areas []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "areas.Locate")(&err)

	wanted := make([]string, 0, len(areas))
	seen := make(map[string]struct{}, len(areas))
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		wanted = append(wanted, a)
	}

	out := make(map[string]domain.Coordinates, len(wanted))
	if len(wanted) == 0 {
		return out, nil
	}

	if c.cache != nil {
		hits, err := c.cache.GetMany(ctx, wanted)
		if err != nil {
			log.Printf("op=areas.Locate stage=cache err=%v", err)
		}
		for k, v := range hits {
			out[k] = v
		}
	}

	fresh := make(map[string]domain.Coordinates)
	for i, src := range c.sources {
		misses := missing(wanted, out)
		if len(misses) == 0 {
			break
		}

		found, err := src.Locate(ctx, misses)
		if err != nil {
			log.Printf("op=areas.Locate stage=source source=%d misses=%d err=%v", i, len(misses), err)
		}
		for k, v := range found {
			if !v.Valid() {
				continue
			}
			out[k] = v
			fresh[k] = v
		}
	}

	if c.cache != nil && len(fresh) > 0 {
		if err := c.cache.PutMany(ctx, fresh); err != nil {
			log.Printf("op=areas.Locate stage=cache_write n=%d err=%v", len(fresh), err)
		}
	}

	if unresolved := missing(wanted, out); len(unresolved) > 0 {
		log.Printf("op=areas.Locate unresolved=%q", unresolved)
	}

	return out, nil
}

func missing(wanted []string, have map[string]domain.Coordinates) []string {
	var out []string
	for _, a := range wanted {
		if _, ok := have[a]; !ok {
			out = append(out, a)
		}
	}
	return out
}
