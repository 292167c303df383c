// Package pool provides a bounded resource pool whose resources are handed
// out as scope-guarded leases. Closing a lease finalizes the resource back
// to the pool; detaching a lease disarms the guard and transfers ownership
// to the caller.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/victoralfred/goguard/guard"
	"github.com/victoralfred/goguard/hooks"
	"github.com/victoralfred/goguard/observability"
)

// Common errors.
var (
	ErrPoolExhausted = errors.New("resource pool exhausted")
	ErrPoolShutdown  = errors.New("resource pool is shutdown")
	ErrRateLimited   = errors.New("acquire rate limit exceeded")
	ErrNilFactory    = errors.New("nil resource factory")
)

// Factory creates a new resource when the pool has no idle one to lend.
type Factory[T any] func(ctx context.Context) (T, error)

// Strategy defines how Acquire behaves when the pool is exhausted or
// rate limited.
type Strategy int

const (
	// StrategyBlock blocks until a slot is available.
	StrategyBlock Strategy = iota

	// StrategyReject immediately rejects the acquire attempt.
	StrategyReject
)

// Config configures the resource pool.
type Config struct {
	// Origin labels this pool in metrics, hooks and audit events.
	Origin string

	// MaxIdle is the number of returned resources kept for reuse.
	// Returns beyond this are destroyed.
	MaxIdle int

	// MaxActive bounds the number of resources alive at once,
	// leased and idle combined.
	MaxActive int

	// AcquireStrategy defines behavior when MaxActive is reached.
	AcquireStrategy Strategy

	// AcquireRate limits the rate of acquisitions. Zero disables limiting.
	AcquireRate rate.Limit

	// AcquireBurst is the burst size for the acquire rate limiter.
	AcquireBurst int
}

// DefaultConfig returns default pool configuration.
func DefaultConfig() Config {
	return Config{
		Origin:          "pool",
		MaxIdle:         8,
		MaxActive:       32,
		AcquireStrategy: StrategyBlock,
	}
}

// Stats contains pool statistics.
type Stats struct {
	InUse          int32
	Idle           int32
	Capacity       int32
	TotalAcquired  int64
	TotalReleased  int64
	TotalDetached  int64
	TotalDestroyed int64
	TotalRejected  int64
	AvgHoldTime    time.Duration
}

// stats tracks pool statistics.
type stats struct {
	inUse          int32
	totalAcquired  int64
	totalReleased  int64
	totalDetached  int64
	totalDestroyed int64
	totalRejected  int64
	totalHoldTime  int64
	holdCount      int64
}

// Pool manages a bounded set of resources of type T.
type Pool[T any] struct {
	factory    Factory[T]
	destroy    guard.TerminatorFunc[T]
	idle       chan T
	slots      chan struct{}
	limiter    *rate.Limiter
	registry   *hooks.Registry
	telemetry  observability.Telemetry
	metrics    *observability.Metrics
	stats      *stats
	shutdownCh chan struct{}
	config     Config
	wg         sync.WaitGroup
	shutdown   int32
}

// Option configures optional pool collaborators.
type Option[T any] func(*Pool[T])

// WithHooks wires a hook registry into the pool's lifecycle transitions.
func WithHooks[T any](r *hooks.Registry) Option[T] {
	return func(p *Pool[T]) {
		p.registry = r
	}
}

// WithTelemetry wires OpenTelemetry reporting into the pool.
func WithTelemetry[T any](t observability.Telemetry) Option[T] {
	return func(p *Pool[T]) {
		p.telemetry = t
	}
}

// WithMetrics wires an in-process metrics collector into the pool.
func WithMetrics[T any](m *observability.Metrics) Option[T] {
	return func(p *Pool[T]) {
		p.metrics = m
	}
}

// New creates a new resource pool. The factory creates resources on demand;
// destroy is the terminal action for resources the pool will not keep
// (idle overflow, shutdown drain). A nil destroy discards resources silently.
func New[T any](config Config, factory Factory[T], destroy func(T), opts ...Option[T]) (*Pool[T], error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	if config.MaxActive <= 0 {
		config.MaxActive = DefaultConfig().MaxActive
	}
	if config.MaxIdle < 0 {
		config.MaxIdle = 0
	}
	if config.MaxIdle > config.MaxActive {
		config.MaxIdle = config.MaxActive
	}
	if config.Origin == "" {
		config.Origin = DefaultConfig().Origin
	}

	if destroy == nil {
		destroy = func(T) {}
	}

	p := &Pool[T]{
		factory:    factory,
		destroy:    destroy,
		idle:       make(chan T, config.MaxIdle),
		slots:      make(chan struct{}, config.MaxActive),
		telemetry:  observability.NoopTelemetry(),
		stats:      &stats{},
		shutdownCh: make(chan struct{}),
		config:     config,
	}

	if config.AcquireRate > 0 {
		burst := config.AcquireBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(config.AcquireRate, burst)
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Acquire leases a resource from the pool. The returned lease must be
// finished exactly once, either by Close (resource goes back to the pool)
// or by Detach (caller takes ownership). Deferring Close covers every exit
// path of the caller's scope.
func (p *Pool[T]) Acquire(ctx context.Context) (*Lease[T], error) {
	if atomic.LoadInt32(&p.shutdown) == 1 {
		return nil, ErrPoolShutdown
	}

	ctx, endSpan := p.telemetry.StartSpan(ctx, "pool.acquire",
		observability.WithAttribute("pool.origin", p.config.Origin),
	)
	defer endSpan()

	if err := p.reserveRate(ctx); err != nil {
		return nil, err
	}

	if err := p.reserveSlot(ctx); err != nil {
		return nil, err
	}

	v, err := p.obtain(ctx)
	if err != nil {
		<-p.slots
		p.recordError(ctx, err)
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	lease := newLease(p, v)
	p.wg.Add(1)

	atomic.AddInt32(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.totalAcquired, 1)
	p.telemetry.RecordCounter(observability.MetricLeasesTotal, p.labels())
	p.telemetry.AddGauge(observability.MetricActiveLeases, 1, p.labels())
	if p.metrics != nil {
		p.metrics.RecordAcquire(p.config.Origin)
	}
	p.runHooks(ctx, func(r *hooks.Registry, e *hooks.Event) error {
		return r.RunAcquire(ctx, e)
	}, lease.id, 0)

	return lease, nil
}

func (p *Pool[T]) reserveRate(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}

	switch p.config.AcquireStrategy {
	case StrategyReject:
		if !p.limiter.Allow() {
			p.reject()
			return ErrRateLimited
		}
		return nil
	default:
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
		return nil
	}
}

func (p *Pool[T]) reserveSlot(ctx context.Context) error {
	switch p.config.AcquireStrategy {
	case StrategyReject:
		select {
		case p.slots <- struct{}{}:
			return nil
		default:
			p.reject()
			return ErrPoolExhausted
		}
	default:
		select {
		case p.slots <- struct{}{}:
			return nil
		case <-ctx.Done():
			p.reject()
			return ctx.Err()
		case <-p.shutdownCh:
			return ErrPoolShutdown
		}
	}
}

// obtain prefers an idle resource and falls back to the factory.
func (p *Pool[T]) obtain(ctx context.Context) (T, error) {
	select {
	case v := <-p.idle:
		return v, nil
	default:
	}

	return p.factory(ctx)
}

func (p *Pool[T]) reject() {
	atomic.AddInt64(&p.stats.totalRejected, 1)
	p.telemetry.RecordCounter(observability.MetricRejectedTotal, p.labels())
	if p.metrics != nil {
		p.metrics.RecordReject(p.config.Origin)
	}
}

// put is the lease terminator: it returns the resource to the idle set or
// destroys it when the pool will not keep it.
func (p *Pool[T]) put(leaseID string, acquired time.Time, v T) {
	hold := time.Since(acquired)
	ctx := context.Background()

	returned := false
	if atomic.LoadInt32(&p.shutdown) == 0 {
		select {
		case p.idle <- v:
			returned = true
		default:
		}
	}

	<-p.slots
	p.wg.Done()

	atomic.AddInt32(&p.stats.inUse, -1)
	atomic.AddInt64(&p.stats.totalHoldTime, int64(hold))
	atomic.AddInt64(&p.stats.holdCount, 1)
	p.telemetry.AddGauge(observability.MetricActiveLeases, -1, p.labels())
	p.telemetry.RecordDuration(observability.MetricHoldSeconds, hold.Seconds(), p.labels())

	if returned {
		atomic.AddInt64(&p.stats.totalReleased, 1)
		p.telemetry.RecordCounter(observability.MetricReleasedTotal, p.labels())
		if p.metrics != nil {
			p.metrics.RecordRelease(p.config.Origin, hold)
		}
		p.runHooks(ctx, func(r *hooks.Registry, e *hooks.Event) error {
			return r.RunRelease(ctx, e)
		}, leaseID, hold)
		return
	}

	p.destroy.Terminate(v)
	atomic.AddInt64(&p.stats.totalDestroyed, 1)
	p.telemetry.RecordCounter(observability.MetricDestroyedTotal, p.labels())
	if p.metrics != nil {
		p.metrics.RecordDestroy(p.config.Origin)
	}
	p.runHooks(ctx, func(r *hooks.Registry, e *hooks.Event) error {
		return r.RunDestroy(ctx, e)
	}, leaseID, hold)
}

// forget removes a detached resource from pool accounting without touching
// the resource itself; ownership has moved to the caller.
func (p *Pool[T]) forget(leaseID string, acquired time.Time) {
	hold := time.Since(acquired)
	ctx := context.Background()

	<-p.slots
	p.wg.Done()

	atomic.AddInt32(&p.stats.inUse, -1)
	atomic.AddInt64(&p.stats.totalDetached, 1)
	atomic.AddInt64(&p.stats.totalHoldTime, int64(hold))
	atomic.AddInt64(&p.stats.holdCount, 1)
	p.telemetry.AddGauge(observability.MetricActiveLeases, -1, p.labels())
	p.telemetry.RecordCounter(observability.MetricDetachedTotal, p.labels())
	p.telemetry.RecordDuration(observability.MetricHoldSeconds, hold.Seconds(), p.labels())
	if p.metrics != nil {
		p.metrics.RecordDetach(p.config.Origin, hold)
	}
	p.runHooks(ctx, func(r *hooks.Registry, e *hooks.Event) error {
		return r.RunDetach(ctx, e)
	}, leaseID, hold)
}

// runHooks invokes one lifecycle hook chain. Hook failures never disturb
// the lease lifecycle; they are routed to the error hooks instead.
func (p *Pool[T]) runHooks(ctx context.Context, run func(*hooks.Registry, *hooks.Event) error, leaseID string, hold time.Duration) {
	if p.registry == nil {
		return
	}

	event := &hooks.Event{
		At:       time.Now(),
		LeaseID:  leaseID,
		Origin:   p.config.Origin,
		HoldTime: hold,
	}
	if err := run(p.registry, event); err != nil {
		//nolint:errcheck // Error hook failures have nowhere left to go
		_ = p.registry.RunError(ctx, event, err)
	}
}

func (p *Pool[T]) recordError(ctx context.Context, err error) {
	if p.registry == nil {
		return
	}

	event := &hooks.Event{At: time.Now(), Origin: p.config.Origin}
	//nolint:errcheck // Error hook failures have nowhere left to go
	_ = p.registry.RunError(ctx, event, err)
}

func (p *Pool[T]) labels() map[string]string {
	return map[string]string{"origin": p.config.Origin}
}

// Stats returns current pool statistics.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		InUse:          atomic.LoadInt32(&p.stats.inUse),
		Idle:           int32(len(p.idle)),
		Capacity:       int32(cap(p.slots)),
		TotalAcquired:  atomic.LoadInt64(&p.stats.totalAcquired),
		TotalReleased:  atomic.LoadInt64(&p.stats.totalReleased),
		TotalDetached:  atomic.LoadInt64(&p.stats.totalDetached),
		TotalDestroyed: atomic.LoadInt64(&p.stats.totalDestroyed),
		TotalRejected:  atomic.LoadInt64(&p.stats.totalRejected),
		AvgHoldTime:    p.avgHoldTime(),
	}
}

func (p *Pool[T]) avgHoldTime() time.Duration {
	count := atomic.LoadInt64(&p.stats.holdCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&p.stats.totalHoldTime) / count)
}

// Shutdown drains the pool: idle resources are destroyed immediately and
// outstanding leases are awaited until ctx expires. Leases closed after
// shutdown destroy their resource instead of returning it.
func (p *Pool[T]) Shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.shutdown, 0, 1) {
		return nil // Already shutdown
	}

	close(p.shutdownCh)

	for {
		select {
		case v := <-p.idle:
			p.destroy.Terminate(v)
			atomic.AddInt64(&p.stats.totalDestroyed, 1)
			p.telemetry.RecordCounter(observability.MetricDestroyedTotal, p.labels())
			if p.metrics != nil {
				p.metrics.RecordDestroy(p.config.Origin)
			}
			p.runHooks(ctx, func(r *hooks.Registry, e *hooks.Event) error {
				return r.RunDestroy(ctx, e)
			}, "", 0)
			continue
		default:
		}
		break
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
