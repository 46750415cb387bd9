package seed

import (
	"context"
	"log/slog"
	"time"
)

// Probe is a lightweight connectivity check against an external service.
type Probe func(ctx context.Context) error

// WaitReady runs probe until it succeeds or maxAttempts is exhausted,
// sleeping backoff between attempts. Returns false after exhaustion or
// context cancellation with no other side effects — the caller decides
// whether that is fatal.
func WaitReady(ctx context.Context, probe Probe, maxAttempts int, backoff time.Duration) bool {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			slog.Warn("[Seeder] Readiness wait cancelled", "attempt", attempt, "error", err)
			return false
		}

		err := probe(ctx)
		if err == nil {
			slog.Info("[Seeder] Datastore is ready", "attempt", attempt)
			return true
		}
		slog.Info("[Seeder] Datastore not ready yet",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
	}

	slog.Error("[Seeder] Datastore never became ready", "attempts", maxAttempts)
	return false
}
