// Package session carries the per-file mutable state that would otherwise
// live as process-wide globals: the intermediate texture pool, a registered
// GPU accelerator handle, and the calibration cache for the currently loaded
// file (spec section 9 EXPANSION, "global singletons... become a Session
// value threaded through the renderer facade"). Two pieces of state outlive
// a Session: the package-level slog.Logger in package logging, and the
// single accelerator registered in package gpuaccel, which engine.New
// installs process-wide when the session carries one.
package session

import (
	"sync"

	"github.com/marcinz606/NegPy/calib"
	"github.com/marcinz606/NegPy/gpuaccel"
	"github.com/marcinz606/NegPy/texpool"
)

// Session owns the resources a renderer facade needs for one loaded file:
// a texture pool shared by every engine built over this session, an
// optional accelerator handle, and a cache of calibration Bounds keyed by
// the caller's choice of file identity (typically the source path).
type Session struct {
	Pool        *texpool.Pool
	Accelerator gpuaccel.Accelerator

	mu    sync.Mutex
	calib map[string]calib.Bounds
}

// Option configures a Session during construction.
type Option func(*sessionOptions)

type sessionOptions struct {
	accelerator  gpuaccel.Accelerator
	pool         *texpool.Pool
	poolCapacity int
}

// WithAccelerator registers the hardware Accelerator this session's
// engines should try before falling back to the CPU kernel.
func WithAccelerator(a gpuaccel.Accelerator) Option {
	return func(o *sessionOptions) { o.accelerator = a }
}

// WithPoolCapacity overrides the session's texture pool's LRU capacity.
// Ignored if WithPool is also given.
func WithPoolCapacity(n int) Option {
	return func(o *sessionOptions) { o.poolCapacity = n }
}

// WithPool injects an already-constructed texture pool instead of letting
// New allocate a private one.
func WithPool(pool *texpool.Pool) Option {
	return func(o *sessionOptions) { o.pool = pool }
}

// New constructs a Session with a fresh texture pool (unless WithPool
// overrides it) and an empty calibration cache.
func New(opts ...Option) *Session {
	o := sessionOptions{poolCapacity: 64}
	for _, opt := range opts {
		opt(&o)
	}

	pool := o.pool
	if pool == nil {
		pool = texpool.New(nil, o.poolCapacity)
	}
	return &Session{
		Pool:        pool,
		Accelerator: o.accelerator,
		calib:       make(map[string]calib.Bounds),
	}
}

// Calibration returns the cached Bounds for key if present.
func (s *Session) Calibration(key string) (calib.Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.calib[key]
	return b, ok
}

// SetCalibration stores bounds under key, replacing any previous entry for
// the same key (a re-loaded or re-analyzed file overwrites its cache entry
// rather than accumulating stale ones).
func (s *Session) SetCalibration(key string, bounds calib.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calib[key] = bounds
}

// InvalidateCalibration drops key's cached Bounds, e.g. when the source
// file on disk has changed underneath the session.
func (s *Session) InvalidateCalibration(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calib, key)
}
