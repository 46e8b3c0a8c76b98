package ports

import (
	"context"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// Fire-and-forget destination for resident notifications.
type NotificationSink interface {
	Publish(ctx context.Context, ev domain.NotificationEvent) error
}
