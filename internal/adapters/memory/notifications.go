package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

// NotificationLog is a NotificationSink that keeps events in memory.
type NotificationLog struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
}

func NewNotificationLog() *NotificationLog {
	return &NotificationLog{}
}

func (l *NotificationLog) Publish(ctx context.Context, ev domain.NotificationEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *NotificationLog) Events() []domain.NotificationEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.NotificationEvent(nil), l.events...)
}
