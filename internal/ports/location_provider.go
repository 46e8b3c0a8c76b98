package ports

import (
	"context"
	"time"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Options for a recurring position stream. A sample is delivered when either
// MinInterval has elapsed or the device moved at least MinDistanceMeters.
type WatchOptions struct {
	HighAccuracy      bool
	MinInterval       time.Duration
	MinDistanceMeters float64
}

// Handle for an active position stream.
type Subscription interface {
	Stop()
}

// Contract for the collector device's location services.
type LocationProvider interface {
	// Ask for foreground location access. Returns false when the user refused.
	RequestForegroundPermission(ctx context.Context) (bool, error)
	// Return the most recent position fix.
	CurrentPosition(ctx context.Context) (domain.PositionSample, error)
	// Subscribe to position updates until the subscription is stopped or ctx ends.
	WatchPosition(ctx context.Context, opts WatchOptions, fn func(domain.PositionSample)) (Subscription, error)
}
