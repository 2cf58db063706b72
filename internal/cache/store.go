// Package cache keeps short-lived shared counters in the primary database so
// rate limits hold across server instances.
package cache

import (
	"context"
	"time"
)

// Counter increments fixed-window counters.
type Counter interface {
	// IncrementWithTTL bumps key and returns the new count and the time left
	// in its window. An expired window restarts at 1.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// PurgeExpired deletes counters whose window ended before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
