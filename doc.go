// Package goguard provides scope guards for guaranteed, exactly-once
// cleanup of owned values, and a resource pool built on them.
//
// GoGuard centralizes cleanup behind two small primitives: AutoFinalizer,
// which runs a value's own terminal action when its scope ends, and
// ScopedTerminator, which pairs an arbitrary payload with a caller-supplied
// terminal action. Both are armed with defer, fire exactly once on every
// exit path including panics, and can be disarmed by extracting their
// contents.
//
// # Key Features
//
//   - Allocation-free, error-free guard primitives with defer-driven finalization
//   - Extraction operations that disarm the guard and return its contents
//   - Bounded resource pool lending resources as scope-guarded leases
//   - OpenTelemetry integration for metrics and tracing
//   - Lifecycle hooks and JSON-lines audit logging
//   - YAML configuration with environment presets
//
// # Basic Usage
//
//	f, err := os.Open(path)
//	if err != nil {
//	    return err
//	}
//	g := goguard.NewScopedFunc(f, func(f *os.File) { f.Close() })
//	defer g.Finalize()
//
//	// ... use g.Get() ...
//
//	// Or take the file back and keep it open past this scope:
//	file, _ := g.Release()
//
// # With a Pool
//
//	p, _ := goguard.NewPool(pool.DefaultConfig(), connect, disconnect)
//	defer p.Shutdown(context.Background())
//
//	lease, err := p.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer lease.Close()
//
// # Ownership Model
//
// A guard exclusively owns its contents. Exactly one of finalization and
// extraction happens per guard; whichever runs first wins and the other is
// a no-op. Guards themselves are not safe for concurrent use without
// external synchronization; the pool and its leases are.
//
// # Package Structure
//
//   - goguard: Main entry point and convenience functions
//   - guard: Core AutoFinalizer and ScopedTerminator primitives
//   - pool: Bounded resource pool lending scope-guarded leases
//   - hooks: Extension points for lease lifecycle transitions
//   - observability: OpenTelemetry metrics, in-process metrics and audit logging
//   - config: Configuration management and YAML loading
package goguard
