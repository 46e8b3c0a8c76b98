package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexisSev/gwaste-application-sub000/internal/domain"
)

func TestRedisSinkPublishesToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	sink, err := NewRedisSink(ctx, "redis://"+mr.Addr(), "test-stream")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	require.NoError(t, sink.Publish(ctx, domain.NotificationEvent{
		Area:        "Poblacion",
		RouteNumber: "R1",
		Status:      domain.NotifyApproaching,
		Message:     "Garbage collector is approaching Poblacion.",
	}))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	entries, err := client.XRange(ctx, "test-stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, "Poblacion", values["area"])
	assert.Equal(t, "approaching", values["status"])

	var ev domain.NotificationEvent
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &ev))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
	assert.Equal(t, "R1", ev.RouteNumber)
}

func TestRedisSinkDefaultStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sink := NewRedisSinkWithClient(client, "")
	require.NoError(t, sink.Publish(context.Background(), domain.NotificationEvent{Area: "A", Status: domain.NotifyCollected}))

	n, err := client.XLen(context.Background(), DefaultStream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewRedisSinkFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisSink(context.Background(), "redis://"+addr, "")
	require.Error(t, err)
}

func TestNewRedisSinkRejectsBadURL(t *testing.T) {
	_, err := NewRedisSink(context.Background(), "://nope", "")
	require.Error(t, err)
}
