package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ListCacheHits           uint64
	ListCacheMisses         uint64
	QueryDurationCount      uint64
	QueryDurationTotalNs    int64
	ResponseDurationCount   uint64
	ResponseDurationTotalNs int64
	ResultsReturned         uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	listCacheHits           uint64
	listCacheMisses         uint64
	queryDurationCount      uint64
	queryDurationTotalNs    int64
	responseDurationCount   uint64
	responseDurationTotalNs int64
	resultsReturned         uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ListCacheHits:           atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses:         atomic.LoadUint64(&m.listCacheMisses),
		QueryDurationCount:      atomic.LoadUint64(&m.queryDurationCount),
		QueryDurationTotalNs:    atomic.LoadInt64(&m.queryDurationTotalNs),
		ResponseDurationCount:   atomic.LoadUint64(&m.responseDurationCount),
		ResponseDurationTotalNs: atomic.LoadInt64(&m.responseDurationTotalNs),
		ResultsReturned:         atomic.LoadUint64(&m.resultsReturned),
	}
}

// IncListCacheHit increments the page cache hit counter.
func (m *InMemoryRecorder) IncListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncListCacheMiss increments the page cache miss counter.
func (m *InMemoryRecorder) IncListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// ObserveQueryDuration records one store round-trip duration.
func (m *InMemoryRecorder) ObserveQueryDuration(duration time.Duration) {
	atomic.AddUint64(&m.queryDurationCount, 1)
	atomic.AddInt64(&m.queryDurationTotalNs, duration.Nanoseconds())
}

// ObserveResponseDuration records one full response duration.
func (m *InMemoryRecorder) ObserveResponseDuration(duration time.Duration) {
	atomic.AddUint64(&m.responseDurationCount, 1)
	atomic.AddInt64(&m.responseDurationTotalNs, duration.Nanoseconds())
}

// ObserveResultCount records how many users a page carried.
func (m *InMemoryRecorder) ObserveResultCount(count int) {
	atomic.AddUint64(&m.resultsReturned, uint64(count))
}
