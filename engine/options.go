package engine

import (
	"github.com/marcinz606/NegPy/gpuaccel"
	"github.com/marcinz606/NegPy/texpool"
)

// Option configures an Engine during construction, mirroring the teacher's
// ContextOption pattern (functional options over an unexported options
// struct). New starts from defaultOptions and each Option overwrites its
// field; a value an Option sets, zero included, is used as given.
type Option func(*engineOptions)

type engineOptions struct {
	accelerator   gpuaccel.Accelerator
	pool          *texpool.Pool
	poolCapacity  int
	tileSize      int
	tileHalo      int
	autocropThreshold float64
}

func defaultOptions() engineOptions {
	return engineOptions{
		poolCapacity:      64,
		tileSize:          2048,
		tileHalo:          32,
		autocropThreshold: 0.5,
	}
}

// WithAccelerator registers a hardware Accelerator the engine's stage
// dispatches will consult before falling back to the CPU kernel.
func WithAccelerator(a gpuaccel.Accelerator) Option {
	return func(o *engineOptions) {
		o.accelerator = a
	}
}

// WithTexturePoolCapacity sets the LRU capacity of the engine's intermediate
// texture pool.
func WithTexturePoolCapacity(n int) Option {
	return func(o *engineOptions) {
		o.poolCapacity = n
	}
}

// WithTileGeometry overrides the default 2048px export tile size and its
// 32px halo. RunExport tiles Retouch and LabTools with halo pixels of
// surrounding context on every side, since both read a bounded neighborhood
// (Retouch's auto-dust median filter, LabTools' unsharp-mask Gaussian blur);
// CLAHEApply and Toning are tiled with no halo since both are pure
// per-pixel transforms against an already-global CDF. size also governs the
// threshold above which RunExport tiles at all.
func WithTileGeometry(size, halo int) Option {
	return func(o *engineOptions) {
		o.tileSize = size
		o.tileHalo = halo
	}
}

// WithPool injects an already-constructed texture pool instead of letting
// New allocate a private one, so a session.Session can own the pool and
// share it across an engine it constructs and any export-only render paths
// that reuse the same session.
func WithPool(pool *texpool.Pool) Option {
	return func(o *engineOptions) {
		o.pool = pool
	}
}

// WithAutocropThreshold overrides the default Rec.709 luminance threshold
// the autocrop edge walk compares against.
func WithAutocropThreshold(threshold float64) Option {
	return func(o *engineOptions) {
		o.autocropThreshold = threshold
	}
}
