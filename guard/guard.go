// Package guard provides scope guards for guaranteed, exactly-once cleanup
// of owned values.
//
// A guard owns a value and a pending terminal action. Attach the guard's
// Finalize method with defer and the action runs exactly once on every exit
// path from the owning scope, including panics. Calling Release instead
// disarms the action and hands the raw contents back to the caller.
//
// Guards allocate nothing, never block, and never return errors. They are
// not safe for concurrent use without external synchronization, and must
// not be copied once armed.
package guard

import "fmt"

// Finalizer is the contract for values that carry their own terminal action.
// Finalize consumes the value; it must not be invoked twice on the same
// logical value.
type Finalizer interface {
	Finalize()
}

// FinalizeFunc adapts a nullary function to the Finalizer interface.
// Invoking the function is its terminal action.
type FinalizeFunc func()

// Finalize implements Finalizer.
func (f FinalizeFunc) Finalize() { f() }

// AutoFinalizer holds one value of a Finalizer type and guarantees its
// Finalize method runs exactly once, unless the value is extracted first
// with Release.
//
// The zero AutoFinalizer is not meaningful; create guards with New. Typical
// use arms the guard for the enclosing scope:
//
//	g := guard.New(conn)
//	defer g.Finalize()
//
// Finalize fires on every exit path defer covers, normal return and panic
// alike. A guard must not be used after Release or Finalize.
type AutoFinalizer[T Finalizer] struct {
	value T
	done  bool
}

// New wraps value in an armed guard. O(1), infallible, no side effects.
func New[T Finalizer](value T) AutoFinalizer[T] {
	return AutoFinalizer[T]{value: value}
}

// NewFunc wraps a nullary function in an armed guard. The function is
// invoked exactly once when the guard finalizes.
func NewFunc(fn func()) AutoFinalizer[FinalizeFunc] {
	return New(FinalizeFunc(fn))
}

// Get returns the contained value for reading.
func (g *AutoFinalizer[T]) Get() T {
	return g.value
}

// Ref returns a pointer to the contained value for in-place mutation.
// The pointer is valid only while the guard is armed.
func (g *AutoFinalizer[T]) Ref() *T {
	return &g.value
}

// Release disarms the guard and returns the contained value unchanged.
// No finalize action runs for this guard afterward, including from a
// deferred Finalize.
func (g *AutoFinalizer[T]) Release() T {
	return g.take()
}

// Finalize runs the contained value's terminal action if the guard is
// still armed. Subsequent calls, and calls after Release, are no-ops.
// Intended to be attached with defer at the point the guard is created.
func (g *AutoFinalizer[T]) Finalize() {
	if g.done {
		return
	}
	g.take().Finalize()
}

// take empties the slot in one step so no path can observe a half-consumed
// guard: the done flag is set before any user code runs.
func (g *AutoFinalizer[T]) take() T {
	v := g.value
	var zero T
	g.value = zero
	g.done = true
	return v
}

// String formats the contained value; the guard itself is transparent.
func (g AutoFinalizer[T]) String() string {
	return fmt.Sprint(g.value)
}
