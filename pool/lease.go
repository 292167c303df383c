package pool

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/victoralfred/goguard/guard"
)

// Lease is a scope-guarded loan of one pooled resource. Exactly one of
// Close and Detach finishes a lease; whichever runs first wins and the
// other becomes a no-op.
//
//	lease, err := p.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer lease.Close()
//
//	use(lease.Value())
type Lease[T any] struct {
	acquired time.Time
	pool     *Pool[T]
	id       string
	guard    guard.ScopedTerminator[T, guard.TerminatorFunc[T]]
	finished int32
}

func newLease[T any](p *Pool[T], v T) *Lease[T] {
	l := &Lease[T]{
		acquired: time.Now(),
		pool:     p,
		id:       uuid.NewString(),
	}
	l.guard = guard.NewScopedFunc(v, func(res T) {
		p.put(l.id, l.acquired, res)
	})
	return l
}

// ID returns the unique lease identifier.
func (l *Lease[T]) ID() string {
	return l.id
}

// Value returns the leased resource for reading.
func (l *Lease[T]) Value() T {
	return l.guard.Get()
}

// Ref returns a pointer to the leased resource for in-place mutation.
// The pointer is valid only until the lease finishes.
func (l *Lease[T]) Ref() *T {
	return l.guard.Ref()
}

// Close finalizes the lease, returning the resource to the pool (or
// destroying it if the pool will not keep it). Safe to call more than
// once and after Detach; only the first finish takes effect. Intended
// to be deferred right after Acquire so the resource goes back on every
// exit path, including panics.
func (l *Lease[T]) Close() {
	if !atomic.CompareAndSwapInt32(&l.finished, 0, 1) {
		return
	}
	l.guard.Finalize()
}

// Detach disarms the lease and transfers ownership of the resource to the
// caller. The pool forgets the resource; the caller is responsible for its
// cleanup from here on. Detach after Close (or a second Detach) returns
// the zero value.
func (l *Lease[T]) Detach() (T, bool) {
	if !atomic.CompareAndSwapInt32(&l.finished, 0, 1) {
		var zero T
		return zero, false
	}
	v, _ := l.guard.Release()
	l.pool.forget(l.id, l.acquired)
	return v, true
}
