package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/db"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
)

// SQLNotificationSink records resident notifications in the notifications
// table. Used when no stream is configured.
type SQLNotificationSink struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLNotificationSink(conn *sql.DB, dialect db.Dialect) *SQLNotificationSink {
	return &SQLNotificationSink{DB: conn, Dialect: dialect}
}

func (s *SQLNotificationSink) Publish(ctx context.Context, ev domain.NotificationEvent) (err error) {
	defer obs.Time(ctx, "notifications.Publish")(&err)

	if s.DB == nil {
		return errors.New("notification sink: DB is nil")
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	query := s.Dialect.Rebind(`
	INSERT INTO notifications (
		id,
		area,
		route_number,
		collector_id,
		status,
		message,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`)
	_, err = s.DB.ExecContext(ctx, query,
		ev.ID,
		ev.Area,
		ev.RouteNumber,
		ev.CollectorID,
		string(ev.Status),
		ev.Message,
		ev.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("publish notification: insert area=%q status=%q: %w", ev.Area, ev.Status, err)
	}

	return nil
}

// ListByArea returns notifications for one area, oldest first.
func (s *SQLNotificationSink) ListByArea(ctx context.Context, area string) ([]domain.NotificationEvent, error) {
	if s.DB == nil {
		return nil, errors.New("notification sink: DB is nil")
	}

	query := s.Dialect.Rebind(`
	SELECT id, area, route_number, collector_id, status, message, created_at
	FROM notifications
	WHERE area = ?
	ORDER BY created_at, id;
	`)
	rows, err := s.DB.QueryContext(ctx, query, area)
	if err != nil {
		return nil, fmt.Errorf("list notifications: query notifications table: %w", err)
	}
	defer rows.Close()

	var out []domain.NotificationEvent
	for rows.Next() {
		var ev domain.NotificationEvent
		var status, createdAt string
		if err := rows.Scan(&ev.ID, &ev.Area, &ev.RouteNumber, &ev.CollectorID, &status, &ev.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("list notifications: scan row: %w", err)
		}
		ev.Status = domain.NotificationStatus(status)
		if ev.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("list notifications: parse created_at of %q: %w", ev.ID, err)
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: row iteration: %w", err)
	}

	return out, nil
}
