package guard

import "fmt"

// Terminator is the contract for callables that perform a terminal action
// on a payload they did not previously own. Terminate consumes both the
// terminator and the payload.
type Terminator[T any] interface {
	Terminate(payload T)
}

// TerminatorFunc adapts a unary function to the Terminator interface.
type TerminatorFunc[T any] func(T)

// Terminate implements Terminator.
func (f TerminatorFunc[T]) Terminate(payload T) { f(payload) }

// termPair couples a payload with its pending terminator. It satisfies
// Finalizer on the pair's behalf so an AutoFinalizer can carry it.
type termPair[T any, F Terminator[T]] struct {
	value T
	term  F
}

// Finalize implements Finalizer.
func (p termPair[T, F]) Finalize() {
	p.term.Terminate(p.value)
}

// ScopedTerminator pairs an arbitrary payload with a terminator and runs
// the terminator on the payload exactly once when the guard finalizes.
// This gives finalize-on-scope-exit behavior to payload types that do not
// themselves implement Finalizer, and lets one payload type be paired with
// different cleanup policies (return to pool A, return to pool B) without
// coupling the type to any of them.
//
//	st := guard.NewScopedFunc(conn, pool.put)
//	defer st.Finalize()
//
// Read and write access always target the payload; the terminator is inert
// cargo until finalize time.
type ScopedTerminator[T any, F Terminator[T]] struct {
	inner AutoFinalizer[termPair[T, F]]
}

// NewScoped pairs value with term in an armed guard. O(1), infallible.
func NewScoped[T any, F Terminator[T]](value T, term F) ScopedTerminator[T, F] {
	return ScopedTerminator[T, F]{
		inner: New(termPair[T, F]{value: value, term: term}),
	}
}

// NewScopedFunc pairs value with a plain function acting as its terminator.
func NewScopedFunc[T any](value T, fn func(T)) ScopedTerminator[T, TerminatorFunc[T]] {
	return NewScoped[T, TerminatorFunc[T]](value, fn)
}

// Get returns the payload for reading. The terminator is not exposed.
func (g *ScopedTerminator[T, F]) Get() T {
	return g.inner.value.value
}

// Ref returns a pointer to the payload for in-place mutation.
// The pointer is valid only while the guard is armed.
func (g *ScopedTerminator[T, F]) Ref() *T {
	return &g.inner.Ref().value
}

// Release disarms the guard and returns payload and terminator unchanged
// and unexecuted. The returned terminator remains usable; callers may still
// apply it to the payload themselves.
func (g *ScopedTerminator[T, F]) Release() (T, F) {
	p := g.inner.Release()
	return p.value, p.term
}

// Finalize invokes the terminator with the payload if the guard is still
// armed. Subsequent calls, and calls after Release, are no-ops.
func (g *ScopedTerminator[T, F]) Finalize() {
	g.inner.Finalize()
}

// String formats the payload only, matching the guard's transparent view.
func (g ScopedTerminator[T, F]) String() string {
	return fmt.Sprint(g.inner.value.value)
}
