//go:build nogpu

package gpubackend

import (
	"github.com/marcinz606/NegPy/gpuaccel"
	"github.com/marcinz606/NegPy/uniform"
)

// Backend is the nogpu stand-in: Init succeeds (shader sources still get
// validated) but every Dispatch immediately falls back, and no hal/vulkan
// symbols are linked into the binary.
type Backend struct{}

var _ gpuaccel.Accelerator = (*Backend)(nil)

func New() *Backend { return &Backend{} }

func (b *Backend) Name() string { return "wgpu-hal-nogpu" }

func (b *Backend) Init() error {
	_, err := compileShaders()
	return err
}

func (b *Backend) Close() {}

func (b *Backend) CanAccelerate(gpuaccel.Op) bool { return false }

func (b *Backend) Dispatch(gpuaccel.Op, string, *uniform.Block, gpuaccel.Target, gpuaccel.Target) error {
	return gpuaccel.ErrFallbackToCPU
}

func (b *Backend) Flush() error { return nil }
