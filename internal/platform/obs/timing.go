package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const (
	RequestIDKey   ctxKey = "req_id"
	CollectorIDKey ctxKey = "collector_id"
)

// WithCollector tags ctx so timed operations are attributed to a collector.
func WithCollector(ctx context.Context, collectorID string) context.Context {
	return context.WithValue(ctx, CollectorIDKey, collectorID)
}

// Time logs the duration of the named operation when the returned func runs.
// Pass the named error return so failures are logged alongside the timing.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	collectorID, _ := ctx.Value(CollectorIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s collector_id=%s op=%s dur=%dms err=%v", reqID, collectorID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s collector_id=%s op=%s dur=%dms", reqID, collectorID, name, dur.Milliseconds())
	}
}
