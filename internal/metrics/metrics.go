// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the listing pipeline.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Page cache metrics
	IncListCacheHit()
	IncListCacheMiss()

	// Listing execution metrics
	ObserveQueryDuration(duration time.Duration)
	ObserveResponseDuration(duration time.Duration)
	ObserveResultCount(count int)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
