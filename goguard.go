package goguard

import (
	"path/filepath"

	"github.com/victoralfred/goguard/config"
	"github.com/victoralfred/goguard/guard"
	"github.com/victoralfred/goguard/pool"
)

// =============================================================================
// Core Types
// =============================================================================

// Finalizer is the contract for values that carry their own terminal action.
type Finalizer = guard.Finalizer

// FinalizeFunc adapts a nullary function to the Finalizer interface.
type FinalizeFunc = guard.FinalizeFunc

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrPoolExhausted indicates the pool has no free slots.
	ErrPoolExhausted = pool.ErrPoolExhausted

	// ErrPoolShutdown indicates the pool has been shut down.
	ErrPoolShutdown = pool.ErrPoolShutdown

	// ErrRateLimited indicates the acquire rate limit was exceeded.
	ErrRateLimited = pool.ErrRateLimited
)

// =============================================================================
// Guard Construction
// =============================================================================

// New wraps a Finalizer value in an armed guard. Arm the scope with defer:
//
//	g := goguard.New(conn)
//	defer g.Finalize()
func New[T guard.Finalizer](value T) guard.AutoFinalizer[T] {
	return guard.New(value)
}

// NewFunc wraps a nullary function in an armed guard; the function runs
// exactly once when the guard finalizes.
//
//	g := goguard.NewFunc(cancel)
//	defer g.Finalize()
func NewFunc(fn func()) guard.AutoFinalizer[guard.FinalizeFunc] {
	return guard.NewFunc(fn)
}

// NewScoped pairs a payload with a Terminator implementation in an armed
// guard.
func NewScoped[T any, F guard.Terminator[T]](value T, term F) guard.ScopedTerminator[T, F] {
	return guard.NewScoped(value, term)
}

// NewScopedFunc pairs a payload with a plain function acting as its
// terminator.
//
//	st := goguard.NewScopedFunc(conn, release)
//	defer st.Finalize()
func NewScopedFunc[T any](value T, fn func(T)) guard.ScopedTerminator[T, guard.TerminatorFunc[T]] {
	return guard.NewScopedFunc(value, fn)
}

// =============================================================================
// Pool Construction
// =============================================================================

// NewPool creates a bounded resource pool whose resources are lent out as
// scope-guarded leases.
//
//	p, err := goguard.NewPool(pool.DefaultConfig(), connect, disconnect)
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown(context.Background())
func NewPool[T any](cfg pool.Config, factory pool.Factory[T], destroy func(T), opts ...pool.Option[T]) (*pool.Pool[T], error) {
	return pool.New(cfg, factory, destroy, opts...)
}

// =============================================================================
// Configuration Loading
// =============================================================================

// LoadConfig creates a loader for a YAML configuration file.
// The basePath is the directory containing the config file; configFile is
// the name of the file relative to basePath.
//
//	loader, err := goguard.LoadConfig("/etc/goguard", "config.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg, err := loader.Load()
func LoadConfig(basePath, configFile string, opts ...config.LoaderOption) (*config.Loader, error) {
	return config.NewLoader(basePath, configFile, opts...)
}

// LoadConfigFromPath creates a loader from a full file path.
// This is a convenience function that splits the path into directory and
// filename.
func LoadConfigFromPath(path string, opts ...config.LoaderOption) (*config.Loader, error) {
	dir := filepath.Dir(path)
	file := filepath.Base(path)
	return config.NewLoader(dir, file, opts...)
}

// =============================================================================
// Version Information
// =============================================================================

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
