package notify

import (
	"context"
	"errors"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/ports"
)

// Fanout publishes every event to all sinks. All sinks are attempted even
// when one fails; the failures are joined.
type Fanout []ports.NotificationSink

func (f Fanout) Publish(ctx context.Context, ev domain.NotificationEvent) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
