package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
	"github.com/AlexisSev/gwaste-application-sub000/internal/platform/obs"
)

const DefaultStream = "resident-notifications"

// RedisSink publishes resident notifications to a Redis stream. Resident
// apps consume the stream with their own consumer groups; each entry carries
// the area as a separate field so consumers can filter without decoding.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink connects using a redis:// URL. The connection is verified
// with PING.
func NewRedisSink(ctx context.Context, redisURL, stream string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis sink: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis sink: verify connection: %w", err)
	}

	return NewRedisSinkWithClient(client, stream), nil
}

func NewRedisSinkWithClient(client *redis.Client, stream string) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: 10000}
}

func (s *RedisSink) Publish(ctx context.Context, ev domain.NotificationEvent) (err error) {
	defer obs.Time(ctx, "notify.redis.Publish")(&err)

	if s.client == nil {
		return errors.New("redis sink: client is nil")
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis sink: encode event: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"area":    ev.Area,
			"status":  string(ev.Status),
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis sink: xadd stream=%q area=%q: %w", s.stream, ev.Area, err)
	}

	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
