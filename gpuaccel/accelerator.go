// Package gpuaccel defines the optional GPU acceleration seam the engine
// dispatches stage kernels through, mirroring gogpu/gg's accelerator
// registry: a single globally registered Accelerator, consulted per
// dispatch via CanAccelerate, with any error (including the ErrFallbackToCPU
// sentinel) transparently routed back to the CPU kernel for that stage.
package gpuaccel

import (
	"errors"
	"sync"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/texpool"
	"github.com/marcinz606/NegPy/uniform"
)

// ErrFallbackToCPU indicates the registered accelerator cannot or will not
// handle this stage dispatch. The engine falls back to the CPU kernel
// without treating this as a render failure.
var ErrFallbackToCPU = errors.New("gpuaccel: falling back to CPU kernel")

// Op identifies a dispatchable stage or metrics kernel for the fast
// CanAccelerate capability check, so the engine can skip the GPU path
// entirely for operations a given backend never implements.
type Op uint32

const (
	OpNormalization Op = 1 << iota
	OpTransform
	OpRetouchAuto
	OpRetouchManual
	OpExposure
	OpLabSeparation
	OpCLAHEHistogram
	OpCLAHECDF
	OpCLAHEApply
	OpToning
	OpLayout
	OpMetricsHistogram
	OpMetricsAutocrop
)

// Target is the buffer a stage dispatch reads from and writes to. Width,
// Height, and Stride describe Data's layout; Data is the pooled texture's
// backing storage reinterpreted as flat interleaved float32 RGB (3 floats
// per pixel), matching imgbuf.Buffer.
type Target struct {
	Data          []float32
	Width, Height int
	Stride        int
}

// FromBuffer builds a Target view over an imgbuf.Buffer without copying.
func FromBuffer(b *imgbuf.Buffer) Target {
	return Target{Data: b.Data, Width: b.Width, Height: b.Height, Stride: b.Stride}
}

// FromTexture builds a Target view over a pooled texture's CPU-shaped
// backing storage. Panics if the texture's Backing is not a []float32,
// which would indicate a GPU-only texture was handed to a CPU-shaped call
// site — a programmer error, not a runtime condition to recover from.
func FromTexture(tex *texpool.Texture) Target {
	data, ok := tex.Backing.([]float32)
	if !ok {
		panic("gpuaccel: texture backing is not a CPU float32 buffer")
	}
	return Target{Data: data, Width: tex.Key.Width, Height: tex.Key.Height, Stride: tex.Key.Width * 3}
}

// Accelerator is an optional GPU acceleration provider for the stage
// pipeline. When registered via RegisterAccelerator, the engine tries GPU
// dispatch first for every op the accelerator reports it can accelerate; any
// error (most commonly ErrFallbackToCPU) causes the engine to run that
// stage's CPU kernel for the current tile instead.
type Accelerator interface {
	// Name identifies the backend, e.g. "wgpu-cpu-fallback" or "wgpu-vulkan".
	Name() string

	// Init acquires GPU resources. Called once at registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// CanAccelerate reports whether this backend implements op at all,
	// independent of whether the current dispatch will actually succeed.
	CanAccelerate(op Op) bool

	// Dispatch runs op against src, writing into dst, reading stage
	// parameters from the uniform block's slot for stageID. Returns
	// ErrFallbackToCPU if this particular dispatch (as opposed to the op in
	// general) cannot be accelerated — for instance a tile shape the
	// compiled pipeline doesn't support.
	Dispatch(op Op, stageID string, params *uniform.Block, src, dst Target) error

	// Flush blocks until every Dispatch call since the last Flush has
	// completed and its fence signaled, so the engine can safely read back
	// dst or return its pooled texture.
	Flush() error
}

// DeviceProviderAware lets a host application share an already-created GPU
// device with the registered accelerator instead of letting it create its
// own, the way a desktop preview window would.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	mu   sync.RWMutex
	curr Accelerator
)

// RegisterAccelerator installs a, calling its Init method. If Init fails,
// the previous accelerator (if any) remains registered and the error is
// returned. Only one accelerator is active at a time; registering a new one
// closes the old one after the swap.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("gpuaccel: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	mu.Lock()
	old := curr
	curr = a
	mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// Current returns the registered accelerator, or nil if software mode.
func Current() Accelerator {
	mu.RLock()
	defer mu.RUnlock()
	return curr
}

// Unregister closes and clears the current accelerator, forcing every
// subsequent dispatch onto the CPU path.
func Unregister() {
	mu.Lock()
	old := curr
	curr = nil
	mu.Unlock()
	if old != nil {
		old.Close()
	}
}
