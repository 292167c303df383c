package hooks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// orderedHook records invocation order across hook instances.
type orderedHook struct {
	order    *[]string
	name     string
	priority int
	err      error
}

func (h *orderedHook) Name() string  { return h.name }
func (h *orderedHook) Priority() int { return h.priority }

func (h *orderedHook) OnAcquire(ctx context.Context, event *Event) error {
	*h.order = append(*h.order, h.name)
	return h.err
}

func (h *orderedHook) OnRelease(ctx context.Context, event *Event) error {
	*h.order = append(*h.order, h.name)
	return h.err
}

func TestRegistry_PriorityOrder(t *testing.T) {
	var order []string
	r := NewRegistry()

	if err := r.Register(&orderedHook{order: &order, name: "late", priority: 100}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&orderedHook{order: &order, name: "early", priority: 1}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	event := &Event{At: time.Now(), LeaseID: "l1", Origin: "test"}
	if err := r.RunAcquire(context.Background(), event); err != nil {
		t.Fatalf("RunAcquire failed: %v", err)
	}

	if len(order) != 2 || order[0] != "early" || order[1] != "late" {
		t.Errorf("hook order = %v, want [early late]", order)
	}
}

func TestRegistry_ErrorWrapsHookName(t *testing.T) {
	var order []string
	hookErr := errors.New("boom")
	r := NewRegistry()

	if err := r.Register(&orderedHook{order: &order, name: "failing", priority: 1, err: hookErr}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := r.RunRelease(context.Background(), &Event{})
	if !errors.Is(err, hookErr) {
		t.Fatalf("expected wrapped hook error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Errorf("error %q does not name the failing hook", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	var order []string
	r := NewRegistry()

	if err := r.Register(&orderedHook{order: &order, name: "gone", priority: 1}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	r.Unregister("gone")

	if err := r.RunAcquire(context.Background(), &Event{}); err != nil {
		t.Fatalf("RunAcquire failed: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("unregistered hook still ran: %v", order)
	}
}

func TestRegistry_EmptyChainsAreNoops(t *testing.T) {
	r := NewRegistry()
	event := &Event{}
	ctx := context.Background()

	if err := r.RunAcquire(ctx, event); err != nil {
		t.Errorf("RunAcquire on empty registry: %v", err)
	}
	if err := r.RunRelease(ctx, event); err != nil {
		t.Errorf("RunRelease on empty registry: %v", err)
	}
	if err := r.RunDetach(ctx, event); err != nil {
		t.Errorf("RunDetach on empty registry: %v", err)
	}
	if err := r.RunDestroy(ctx, event); err != nil {
		t.Errorf("RunDestroy on empty registry: %v", err)
	}
	if err := r.RunError(ctx, event, errors.New("x")); err != nil {
		t.Errorf("RunError on empty registry: %v", err)
	}
}

func TestLoggingHook(t *testing.T) {
	var lines []string
	h := NewLoggingHook(func(format string, args ...interface{}) {
		lines = append(lines, format)
	})

	r := NewRegistry()
	if err := r.Register(h); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()
	event := &Event{At: time.Now(), LeaseID: "l1", Origin: "test", HoldTime: time.Second}

	if err := r.RunAcquire(ctx, event); err != nil {
		t.Fatalf("RunAcquire failed: %v", err)
	}
	if err := r.RunRelease(ctx, event); err != nil {
		t.Fatalf("RunRelease failed: %v", err)
	}
	if err := r.RunDetach(ctx, event); err != nil {
		t.Fatalf("RunDetach failed: %v", err)
	}
	if err := r.RunDestroy(ctx, event); err != nil {
		t.Fatalf("RunDestroy failed: %v", err)
	}
	if err := r.RunError(ctx, event, errors.New("x")); err != nil {
		t.Fatalf("RunError failed: %v", err)
	}

	if len(lines) != 5 {
		t.Errorf("logging hook wrote %d lines, want 5", len(lines))
	}
}
