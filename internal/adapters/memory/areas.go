package memory

import (
	"context"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// StaticLocator resolves areas from a fixed table.
type StaticLocator map[string]domain.Coordinates

func (l StaticLocator) Locate(ctx context.Context, areas []string) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(areas))
	for _, a := range areas {
		if c, ok := l[a]; ok {
			out[a] = c
		}
	}
	return out, nil
}
