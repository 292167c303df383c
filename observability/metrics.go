package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics provides in-process lease lifecycle metrics.
type Metrics struct {
	originStats    map[string]*OriginStats
	totalAcquired  int64
	totalReleased  int64
	totalDetached  int64
	totalDestroyed int64
	totalRejected  int64
	totalHoldTime  int64
	holdCount      int64
	minHoldTime    int64
	maxHoldTime    int64
	mu             sync.RWMutex
}

// OriginStats contains per-origin statistics.
type OriginStats struct {
	LastLeaseAt    time.Time
	Origin         string
	TotalAcquired  int64
	TotalReleased  int64
	TotalDetached  int64
	TotalDestroyed int64
	TotalHoldTime  int64
	AvgHoldTime    int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		originStats: make(map[string]*OriginStats),
		minHoldTime: -1,
	}
}

// RecordAcquire records a lease being handed out.
func (m *Metrics) RecordAcquire(origin string) {
	atomic.AddInt64(&m.totalAcquired, 1)
	m.withOrigin(origin, func(s *OriginStats) {
		s.TotalAcquired++
		s.LastLeaseAt = time.Now()
	})
}

// RecordRelease records a lease finalizing back to its pool.
func (m *Metrics) RecordRelease(origin string, hold time.Duration) {
	atomic.AddInt64(&m.totalReleased, 1)
	m.recordHold(hold)
	m.withOrigin(origin, func(s *OriginStats) {
		s.TotalReleased++
		s.TotalHoldTime += hold.Nanoseconds()
		completed := s.TotalReleased + s.TotalDetached
		s.AvgHoldTime = s.TotalHoldTime / completed
	})
}

// RecordDetach records a lease leaving pool ownership via extraction.
func (m *Metrics) RecordDetach(origin string, hold time.Duration) {
	atomic.AddInt64(&m.totalDetached, 1)
	m.recordHold(hold)
	m.withOrigin(origin, func(s *OriginStats) {
		s.TotalDetached++
		s.TotalHoldTime += hold.Nanoseconds()
		completed := s.TotalReleased + s.TotalDetached
		s.AvgHoldTime = s.TotalHoldTime / completed
	})
}

// RecordDestroy records a resource being destroyed rather than pooled.
func (m *Metrics) RecordDestroy(origin string) {
	atomic.AddInt64(&m.totalDestroyed, 1)
	m.withOrigin(origin, func(s *OriginStats) {
		s.TotalDestroyed++
	})
}

// RecordReject records a rejected acquire attempt.
func (m *Metrics) RecordReject(origin string) {
	atomic.AddInt64(&m.totalRejected, 1)
}

func (m *Metrics) recordHold(hold time.Duration) {
	ns := hold.Nanoseconds()
	atomic.AddInt64(&m.totalHoldTime, ns)
	atomic.AddInt64(&m.holdCount, 1)

	for {
		old := atomic.LoadInt64(&m.minHoldTime)
		if old >= 0 && ns >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minHoldTime, old, ns) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.maxHoldTime)
		if ns <= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.maxHoldTime, old, ns) {
			break
		}
	}
}

func (m *Metrics) withOrigin(origin string, fn func(*OriginStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.originStats[origin]
	if !ok {
		stats = &OriginStats{Origin: origin}
		m.originStats[origin] = stats
	}
	fn(stats)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalAcquired:  atomic.LoadInt64(&m.totalAcquired),
		TotalReleased:  atomic.LoadInt64(&m.totalReleased),
		TotalDetached:  atomic.LoadInt64(&m.totalDetached),
		TotalDestroyed: atomic.LoadInt64(&m.totalDestroyed),
		TotalRejected:  atomic.LoadInt64(&m.totalRejected),
		AvgHoldTime:    m.avgHoldTime(),
		MinHoldTime:    time.Duration(atomic.LoadInt64(&m.minHoldTime)),
		MaxHoldTime:    time.Duration(atomic.LoadInt64(&m.maxHoldTime)),
		OriginStats:    m.getOriginStats(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	OriginStats    map[string]*OriginStats
	TotalAcquired  int64
	TotalReleased  int64
	TotalDetached  int64
	TotalDestroyed int64
	TotalRejected  int64
	AvgHoldTime    time.Duration
	MinHoldTime    time.Duration
	MaxHoldTime    time.Duration
}

// Outstanding returns the number of leases that have neither finalized nor
// been detached.
func (s MetricsSnapshot) Outstanding() int64 {
	return s.TotalAcquired - s.TotalReleased - s.TotalDetached
}

// ReturnRate returns the fraction of finished leases that went back to
// their pool, as a percentage.
func (s MetricsSnapshot) ReturnRate() float64 {
	finished := s.TotalReleased + s.TotalDetached
	if finished == 0 {
		return 0
	}
	return float64(s.TotalReleased) / float64(finished) * 100
}

func (m *Metrics) avgHoldTime() time.Duration {
	count := atomic.LoadInt64(&m.holdCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalHoldTime) / count)
}

func (m *Metrics) getOriginStats() map[string]*OriginStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*OriginStats, len(m.originStats))
	for k, v := range m.originStats {
		copied := *v
		result[k] = &copied
	}
	return result
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.totalAcquired, 0)
	atomic.StoreInt64(&m.totalReleased, 0)
	atomic.StoreInt64(&m.totalDetached, 0)
	atomic.StoreInt64(&m.totalDestroyed, 0)
	atomic.StoreInt64(&m.totalRejected, 0)
	atomic.StoreInt64(&m.totalHoldTime, 0)
	atomic.StoreInt64(&m.holdCount, 0)
	atomic.StoreInt64(&m.minHoldTime, -1)
	atomic.StoreInt64(&m.maxHoldTime, 0)

	m.mu.Lock()
	m.originStats = make(map[string]*OriginStats)
	m.mu.Unlock()
}
