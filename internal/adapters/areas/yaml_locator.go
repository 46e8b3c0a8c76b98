package areas

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

type areaFile struct {
	Areas []areaEntry `yaml:"areas"`
}

type areaEntry struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// YAMLLocator resolves areas from a static file maintained by the
// operations team:
//
//	areas:
//	  - name: Poblacion
//	    lat: 14.6
//	    lng: 121.0
type YAMLLocator struct {
	coords map[string]domain.Coordinates
}

// LoadYAML reads and validates an areas file. Duplicate names keep the last entry.
func LoadYAML(path string) (*YAMLLocator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load areas: read %q: %w", path, err)
	}
	return ParseYAML(data)
}

func ParseYAML(data []byte) (*YAMLLocator, error) {
	var f areaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load areas: parse yaml: %w", err)
	}

	coords := make(map[string]domain.Coordinates, len(f.Areas))
	for i, a := range f.Areas {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, fmt.Errorf("load areas: entry %d: name cannot be empty", i+1)
		}
		c := domain.Coordinates{Lon: a.Lng, Lat: a.Lat}
		if !c.Valid() {
			return nil, fmt.Errorf("load areas: area %q: coordinates out of range", name)
		}
		coords[name] = c
	}

	return &YAMLLocator{coords: coords}, nil
}

func (l *YAMLLocator) Locate(ctx context.Context, areas []string) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(areas))
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if c, ok := l.coords[a]; ok {
			out[a] = c
		}
	}
	return out, nil
}

// All returns a copy of every area in the file.
func (l *YAMLLocator) All() map[string]domain.Coordinates {
	out := make(map[string]domain.Coordinates, len(l.coords))
	for k, v := range l.coords {
		out[k] = v
	}
	return out
}
