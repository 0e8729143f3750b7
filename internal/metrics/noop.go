package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncListCacheHit is a no-op.
func (n *NoopRecorder) IncListCacheHit() {}

// IncListCacheMiss is a no-op.
func (n *NoopRecorder) IncListCacheMiss() {}

// ObserveQueryDuration is a no-op.
func (n *NoopRecorder) ObserveQueryDuration(duration time.Duration) {}

// ObserveResponseDuration is a no-op.
func (n *NoopRecorder) ObserveResponseDuration(duration time.Duration) {}

// ObserveResultCount is a no-op.
func (n *NoopRecorder) ObserveResultCount(count int) {}
