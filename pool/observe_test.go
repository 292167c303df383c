package pool

import (
	"context"
	"sync"
	"testing"

	"github.com/victoralfred/goguard/hooks"
	"github.com/victoralfred/goguard/observability"
)

// captureHook records every lifecycle transition it sees.
type captureHook struct {
	mu       sync.Mutex
	acquired []string
	released []string
	detached []string
	destroys int
}

func (h *captureHook) Name() string  { return "capture" }
func (h *captureHook) Priority() int { return 1 }

func (h *captureHook) OnAcquire(ctx context.Context, event *hooks.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.acquired = append(h.acquired, event.LeaseID)
	return nil
}

func (h *captureHook) OnRelease(ctx context.Context, event *hooks.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = append(h.released, event.LeaseID)
	return nil
}

func (h *captureHook) OnDetach(ctx context.Context, event *hooks.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detached = append(h.detached, event.LeaseID)
	return nil
}

func (h *captureHook) OnDestroy(ctx context.Context, event *hooks.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.destroys++
	return nil
}

func TestPool_HooksObserveLifecycle(t *testing.T) {
	capture := &captureHook{}
	registry := hooks.NewRegistry()
	if err := registry.Register(capture); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	p, err := New(DefaultConfig(),
		func(ctx context.Context) (string, error) { return "res", nil },
		nil,
		WithHooks[string](registry),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	lease.Close()

	lease2, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, ok := lease2.Detach(); !ok {
		t.Fatal("Detach failed")
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()

	if len(capture.acquired) != 2 {
		t.Errorf("acquire hooks ran %d times, want 2", len(capture.acquired))
	}
	if len(capture.released) != 1 || capture.released[0] != lease.ID() {
		t.Errorf("release hooks saw %v, want [%s]", capture.released, lease.ID())
	}
	if len(capture.detached) != 1 || capture.detached[0] != lease2.ID() {
		t.Errorf("detach hooks saw %v, want [%s]", capture.detached, lease2.ID())
	}
	// The pooled resource from the first lease is drained at shutdown.
	if capture.destroys != 1 {
		t.Errorf("destroy hooks ran %d times, want 1", capture.destroys)
	}
}

func TestPool_MetricsCollector(t *testing.T) {
	metrics := observability.NewMetrics()
	config := DefaultConfig()
	config.Origin = "db-primary"

	p, err := New(config,
		func(ctx context.Context) (int, error) { return 1, nil },
		nil,
		WithMetrics[int](metrics),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() {
		if shutdownErr := p.Shutdown(context.Background()); shutdownErr != nil {
			t.Errorf("Shutdown() failed: %v", shutdownErr)
		}
	}()

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	lease.Close()

	snap := metrics.Snapshot()
	if snap.TotalAcquired != 1 || snap.TotalReleased != 1 {
		t.Errorf("snapshot = %+v, want 1 acquired and 1 released", snap)
	}
	if snap.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", snap.Outstanding())
	}

	origin, ok := snap.OriginStats["db-primary"]
	if !ok {
		t.Fatal("missing origin stats for db-primary")
	}
	if origin.TotalAcquired != 1 {
		t.Errorf("origin TotalAcquired = %d, want 1", origin.TotalAcquired)
	}
}

func TestPool_WithNoopTelemetry(t *testing.T) {
	p, err := New(DefaultConfig(),
		func(ctx context.Context) (int, error) { return 1, nil },
		nil,
		WithTelemetry[int](observability.NoopTelemetry()),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() {
		if shutdownErr := p.Shutdown(context.Background()); shutdownErr != nil {
			t.Errorf("Shutdown() failed: %v", shutdownErr)
		}
	}()

	lease, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	lease.Close()
}
