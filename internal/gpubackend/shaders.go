// Package gpubackend is the optional hardware accelerator for the stage
// pipeline: real hal/gputypes texture lifecycle management, with compute
// dispatch stubbed the same way gogpu/gg's own shaders.go stubs shader
// compilation pending upstream wgpu compute-pipeline support. Every op
// Dispatch is asked to run returns gpuaccel.ErrFallbackToCPU, so the engine
// always executes the CPU kernel for actual pixel math; what this package
// exercises for real is GPU memory residency (create/destroy a texture of
// the dispatch's shape per call) so the dependency is load-bearing rather
// than decorative.
package gpubackend

import (
	_ "embed"
	"errors"
)

//go:embed shaders/normalization.wgsl
var normalizationShaderSource string

//go:embed shaders/transform.wgsl
var transformShaderSource string

//go:embed shaders/exposure.wgsl
var exposureShaderSource string

//go:embed shaders/lab_clahe.wgsl
var labCLAHEShaderSource string

//go:embed shaders/toning.wgsl
var toningShaderSource string

//go:embed shaders/metrics.wgsl
var metricsShaderSource string

// ShaderModuleID is a placeholder compiled-shader handle. It will be
// replaced with a real gputypes shader module handle once naga.Compile and
// core.CreateShaderModule land in gogpu/wgpu for compute pipelines.
type ShaderModuleID uint64

// InvalidShaderModule marks an uninitialized module slot.
const InvalidShaderModule ShaderModuleID = 0

// shaderModules holds one stub module per WGSL source this backend embeds.
type shaderModules struct {
	Normalization ShaderModuleID
	Transform     ShaderModuleID
	Exposure      ShaderModuleID
	LabCLAHE      ShaderModuleID
	Toning        ShaderModuleID
	Metrics       ShaderModuleID
}

// compileShaders validates every embedded WGSL source is non-empty and
// returns stub module handles.
//
//	naga.Compile(normalizationShaderSource)
//	core.CreateShaderModule(device, spirv)
//
// land when gogpu/wgpu exposes a compute pipeline path.
func compileShaders() (*shaderModules, error) {
	sources := []struct {
		name string
		src  string
	}{
		{"normalization", normalizationShaderSource},
		{"transform", transformShaderSource},
		{"exposure", exposureShaderSource},
		{"lab_clahe", labCLAHEShaderSource},
		{"toning", toningShaderSource},
		{"metrics", metricsShaderSource},
	}
	for _, s := range sources {
		if s.src == "" {
			return nil, errors.New("gpubackend: " + s.name + " shader source is empty")
		}
	}
	return &shaderModules{
		Normalization: 1,
		Transform:     2,
		Exposure:      3,
		LabCLAHE:      4,
		Toning:        5,
		Metrics:       6,
	}, nil
}
