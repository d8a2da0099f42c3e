// Package cache holds computed report payloads behind a small interface
// so the service works the same with or without Redis. Keys carry a
// generation counter; bumping it on any ledger or catalog mutation makes
// stale entries unreachable without delete bookkeeping.
package cache

import (
	"context"
	"time"
)

type ReportCache interface {
	// Get unmarshals a cached payload into dest, reporting a miss as
	// ok=false with a nil error.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Generation returns the counter mixed into report keys.
	Generation(ctx context.Context) int64
	// Bump advances the generation, invalidating every keyed report.
	Bump(ctx context.Context) error
}

// NoopReportCache misses every read and swallows every write.
type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }

func (NoopReportCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error { return nil }

func (NoopReportCache) Generation(_ context.Context) int64 { return 0 }

func (NoopReportCache) Bump(_ context.Context) error { return nil }
