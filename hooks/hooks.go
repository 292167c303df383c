// Package hooks provides extension points for the guard lease lifecycle.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Event describes one lease lifecycle transition.
type Event struct {
	// At is when the transition happened.
	At time.Time

	// LeaseID identifies the lease, when the event belongs to one.
	LeaseID string

	// Origin names the pool or component that produced the event.
	Origin string

	// HoldTime is how long the lease was held, for release and detach events.
	HoldTime time.Duration
}

// Hook defines extension points for the lease lifecycle.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// AcquireHook is called after a lease is handed out.
type AcquireHook interface {
	Hook
	OnAcquire(ctx context.Context, event *Event) error
}

// ReleaseHook is called after a lease finalizes back to its pool.
type ReleaseHook interface {
	Hook
	OnRelease(ctx context.Context, event *Event) error
}

// DetachHook is called after a lease is extracted from pool ownership.
type DetachHook interface {
	Hook
	OnDetach(ctx context.Context, event *Event) error
}

// DestroyHook is called after a resource is destroyed rather than pooled.
type DestroyHook interface {
	Hook
	OnDestroy(ctx context.Context, event *Event) error
}

// ErrorHook is called when a lifecycle operation fails.
type ErrorHook interface {
	Hook
	OnError(ctx context.Context, event *Event, err error) error
}

// Registry manages hook registration and invocation.
type Registry struct {
	acquire []AcquireHook
	release []ReleaseHook
	detach  []DetachHook
	destroy []DestroyHook
	errors  []ErrorHook
	mu      sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		acquire: make([]AcquireHook, 0),
		release: make([]ReleaseHook, 0),
		detach:  make([]DetachHook, 0),
		destroy: make([]DestroyHook, 0),
		errors:  make([]ErrorHook, 0),
	}
}

// Register adds a hook to the registry.
// A hook may implement several lifecycle interfaces at once.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := hook.(AcquireHook); ok {
		r.acquire = append(r.acquire, h)
		sort.Slice(r.acquire, func(i, j int) bool {
			return r.acquire[i].Priority() < r.acquire[j].Priority()
		})
	}

	if h, ok := hook.(ReleaseHook); ok {
		r.release = append(r.release, h)
		sort.Slice(r.release, func(i, j int) bool {
			return r.release[i].Priority() < r.release[j].Priority()
		})
	}

	if h, ok := hook.(DetachHook); ok {
		r.detach = append(r.detach, h)
		sort.Slice(r.detach, func(i, j int) bool {
			return r.detach[i].Priority() < r.detach[j].Priority()
		})
	}

	if h, ok := hook.(DestroyHook); ok {
		r.destroy = append(r.destroy, h)
		sort.Slice(r.destroy, func(i, j int) bool {
			return r.destroy[i].Priority() < r.destroy[j].Priority()
		})
	}

	if h, ok := hook.(ErrorHook); ok {
		r.errors = append(r.errors, h)
		sort.Slice(r.errors, func(i, j int) bool {
			return r.errors[i].Priority() < r.errors[j].Priority()
		})
	}

	return nil
}

// Unregister removes a hook by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.acquire = removeByNameAcquire(r.acquire, name)
	r.release = removeByNameRelease(r.release, name)
	r.detach = removeByNameDetach(r.detach, name)
	r.destroy = removeByNameDestroy(r.destroy, name)
	r.errors = removeByNameError(r.errors, name)
}

// RunAcquire runs all acquire hooks.
func (r *Registry) RunAcquire(ctx context.Context, event *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.acquire {
		if err := hook.OnAcquire(ctx, event); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunRelease runs all release hooks.
func (r *Registry) RunRelease(ctx context.Context, event *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.release {
		if err := hook.OnRelease(ctx, event); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunDetach runs all detach hooks.
func (r *Registry) RunDetach(ctx context.Context, event *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.detach {
		if err := hook.OnDetach(ctx, event); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunDestroy runs all destroy hooks.
func (r *Registry) RunDestroy(ctx context.Context, event *Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.destroy {
		if err := hook.OnDestroy(ctx, event); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// RunError runs all error hooks.
func (r *Registry) RunError(ctx context.Context, event *Event, opErr error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.errors {
		if err := hook.OnError(ctx, event, opErr); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}

// Helper functions for removing hooks by name
func removeByNameAcquire(hooks []AcquireHook, name string) []AcquireHook {
	result := make([]AcquireHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeByNameRelease(hooks []ReleaseHook, name string) []ReleaseHook {
	result := make([]ReleaseHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeByNameDetach(hooks []DetachHook, name string) []DetachHook {
	result := make([]DetachHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeByNameDestroy(hooks []DestroyHook, name string) []DestroyHook {
	result := make([]DestroyHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

func removeByNameError(hooks []ErrorHook, name string) []ErrorHook {
	result := make([]ErrorHook, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

// LoggingHook is a built-in hook that logs lease lifecycle transitions.
type LoggingHook struct {
	logger func(format string, args ...interface{})
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

func (h *LoggingHook) OnAcquire(ctx context.Context, event *Event) error {
	h.logger("lease acquired: %s origin=%s", event.LeaseID, event.Origin)
	return nil
}

func (h *LoggingHook) OnRelease(ctx context.Context, event *Event) error {
	h.logger("lease released: %s origin=%s held=%v", event.LeaseID, event.Origin, event.HoldTime)
	return nil
}

func (h *LoggingHook) OnDetach(ctx context.Context, event *Event) error {
	h.logger("lease detached: %s origin=%s held=%v", event.LeaseID, event.Origin, event.HoldTime)
	return nil
}

func (h *LoggingHook) OnDestroy(ctx context.Context, event *Event) error {
	h.logger("resource destroyed: origin=%s", event.Origin)
	return nil
}

func (h *LoggingHook) OnError(ctx context.Context, event *Event, err error) error {
	h.logger("lifecycle error: origin=%s - %v", event.Origin, err)
	return nil
}
