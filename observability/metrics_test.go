package observability

import (
	"context"
	"testing"
	"time"
)

func TestMetrics_RecordAndSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordAcquire("a")
	m.RecordAcquire("a")
	m.RecordAcquire("b")
	m.RecordRelease("a", 10*time.Millisecond)
	m.RecordDetach("b", 30*time.Millisecond)
	m.RecordDestroy("a")
	m.RecordReject("a")

	snap := m.Snapshot()

	if snap.TotalAcquired != 3 {
		t.Errorf("TotalAcquired = %d, want 3", snap.TotalAcquired)
	}
	if snap.TotalReleased != 1 || snap.TotalDetached != 1 {
		t.Errorf("released/detached = %d/%d, want 1/1", snap.TotalReleased, snap.TotalDetached)
	}
	if snap.TotalDestroyed != 1 || snap.TotalRejected != 1 {
		t.Errorf("destroyed/rejected = %d/%d, want 1/1", snap.TotalDestroyed, snap.TotalRejected)
	}
	if snap.Outstanding() != 1 {
		t.Errorf("Outstanding() = %d, want 1", snap.Outstanding())
	}
	if snap.MinHoldTime != 10*time.Millisecond {
		t.Errorf("MinHoldTime = %v, want 10ms", snap.MinHoldTime)
	}
	if snap.MaxHoldTime != 30*time.Millisecond {
		t.Errorf("MaxHoldTime = %v, want 30ms", snap.MaxHoldTime)
	}
	if snap.AvgHoldTime != 20*time.Millisecond {
		t.Errorf("AvgHoldTime = %v, want 20ms", snap.AvgHoldTime)
	}
}

func TestMetrics_ReturnRate(t *testing.T) {
	m := NewMetrics()

	if got := m.Snapshot().ReturnRate(); got != 0 {
		t.Errorf("ReturnRate with no data = %v, want 0", got)
	}

	m.RecordAcquire("a")
	m.RecordAcquire("a")
	m.RecordRelease("a", time.Millisecond)
	m.RecordDetach("a", time.Millisecond)

	if got := m.Snapshot().ReturnRate(); got != 50 {
		t.Errorf("ReturnRate = %v, want 50", got)
	}
}

func TestMetrics_OriginStats(t *testing.T) {
	m := NewMetrics()

	m.RecordAcquire("db")
	m.RecordRelease("db", 4*time.Millisecond)
	m.RecordAcquire("cache")

	snap := m.Snapshot()
	db, ok := snap.OriginStats["db"]
	if !ok {
		t.Fatal("missing db origin stats")
	}
	if db.TotalAcquired != 1 || db.TotalReleased != 1 {
		t.Errorf("db stats = %+v, want 1 acquired and 1 released", db)
	}
	if db.AvgHoldTime != (4 * time.Millisecond).Nanoseconds() {
		t.Errorf("db AvgHoldTime = %d, want 4ms in ns", db.AvgHoldTime)
	}
	if db.LastLeaseAt.IsZero() {
		t.Error("db LastLeaseAt not set")
	}

	if _, ok := snap.OriginStats["cache"]; !ok {
		t.Error("missing cache origin stats")
	}

	// Snapshot must be a copy, not a view.
	db.TotalAcquired = 99
	if m.Snapshot().OriginStats["db"].TotalAcquired == 99 {
		t.Error("snapshot aliases internal stats")
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()

	m.RecordAcquire("a")
	m.RecordRelease("a", time.Millisecond)
	m.Reset()

	snap := m.Snapshot()
	if snap.TotalAcquired != 0 || snap.TotalReleased != 0 {
		t.Errorf("snapshot after Reset = %+v, want zeros", snap)
	}
	if len(snap.OriginStats) != 0 {
		t.Errorf("origin stats after Reset = %v, want empty", snap.OriginStats)
	}
}

func TestNoopTelemetry(t *testing.T) {
	tel := NoopTelemetry()

	ctx, end := tel.StartSpan(context.Background(), "noop")
	if ctx == nil {
		t.Error("noop StartSpan returned nil context")
	}
	end()

	tel.RecordCounter(MetricLeasesTotal, nil)
	tel.RecordDuration(MetricHoldSeconds, 1.0, nil)
	tel.AddGauge(MetricActiveLeases, 1, nil)
}
