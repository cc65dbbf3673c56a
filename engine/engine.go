// Package engine chains the stage kernels into the fixed pipeline order
// (Normalization, Transform, Retouch, Exposure, LabTools, the three CLAHE
// passes, Toning, Layout), owns the intermediate texture pool, and exposes a
// coalescing single-worker render queue with renderID-based cancellation,
// mirroring the teacher's single-registrar accelerator plus a local
// "most recent wins" request slot.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/marcinz606/NegPy/calib"
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/gpuaccel"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/logging"
	"github.com/marcinz606/NegPy/metrics"
	"github.com/marcinz606/NegPy/negpyerr"
	"github.com/marcinz606/NegPy/stages"
	"github.com/marcinz606/NegPy/texpool"
	"github.com/marcinz606/NegPy/uniform"
)

// Result is what a render produces: the final (post-Layout) image, the
// histogram computed at the post-toning/pre-layout insertion point, and any
// error. A renderID-cancelled request reports errSuperseded and a nil
// Output.
type Result struct {
	Output    *imgbuf.Buffer
	Histogram *metrics.HistogramResult
	RenderID  uint64
	Err       error
}

// renderRequest is one coalescing queue entry.
type renderRequest struct {
	id     uint64
	cfg    config.WorkspaceConfig
	bounds calib.Bounds
	src    *imgbuf.Buffer
	onDone func(Result)
}

// Engine runs the fixed stage pipeline against a loaded image, serializing
// renders through a single worker goroutine fed by a capacity-1 coalescing
// queue: a new Submit while one is in flight drops the superseded request
// rather than queuing it.
type Engine struct {
	opts engineOptions
	pool *texpool.Pool

	nextRenderID atomic.Uint64
	latest       atomic.Uint64

	requests chan renderRequest
	closeCh  chan struct{}
	closeOne sync.Once
}

// New constructs an Engine and starts its render worker. If a WithAccelerator
// option is given, it is registered globally via gpuaccel.RegisterAccelerator;
// a failed Init is logged and the engine proceeds in CPU-only mode.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.accelerator != nil {
		if err := gpuaccel.RegisterAccelerator(o.accelerator); err != nil {
			logging.Get().Error("engine: accelerator registration failed", "error", err)
		}
	}

	pool := o.pool
	if pool == nil {
		pool = texpool.New(nil, o.poolCapacity)
	}
	e := &Engine{
		opts:     o,
		pool:     pool,
		requests: make(chan renderRequest, 1),
		closeCh:  make(chan struct{}),
	}
	go e.worker()
	return e
}

// Close stops the render worker. In-flight renders complete; queued (not yet
// started) requests are dropped without invoking their callback.
func (e *Engine) Close() {
	e.closeOne.Do(func() { close(e.closeCh) })
}

// Submit enqueues a render, coalescing with any not-yet-started request
// already queued: at most one request is ever waiting behind the one
// currently running. onDone is invoked from the worker goroutine, never from
// the caller's goroutine — including the ConfigInvalid rejection a
// malformed cfg gets from config.Validate, which run checks once the
// request reaches the front of the queue. Returns the new request's
// renderID.
func (e *Engine) Submit(cfg config.WorkspaceConfig, bounds calib.Bounds, src *imgbuf.Buffer, onDone func(Result)) uint64 {
	id := e.nextRenderID.Add(1)
	e.latest.Store(id)
	req := renderRequest{id: id, cfg: cfg, bounds: bounds, src: src, onDone: onDone}

	for {
		select {
		case e.requests <- req:
			return id
		default:
			select {
			case <-e.requests:
			default:
			}
		}
	}
}

func (e *Engine) worker() {
	for {
		select {
		case <-e.closeCh:
			return
		case req := <-e.requests:
			select {
			case <-e.closeCh:
				return
			default:
			}
			result := e.run(req.id, req.cfg, req.bounds, req.src)
			if req.onDone != nil {
				req.onDone(result)
			}
		}
	}
}

// cancelled reports whether id has been superseded by a later Submit.
func (e *Engine) cancelled(id uint64) bool {
	return e.latest.Load() != id
}

var errSuperseded = negpyerr.New(negpyerr.TileDispatchFailed, "render superseded by a newer request")

// dispatch tries the registered GPU accelerator for op before falling back
// to cpu. Transform and Layout are never routed through here since they
// change the buffer's canvas size, which the pooled dst Target's fixed
// dimensions can't represent; CLAHE's Histogram/CDF passes produce bin
// arrays rather than an image and are likewise CPU-only. Every other stage
// is a same-shape src->dst transform and goes through this seam.
func (e *Engine) dispatch(op gpuaccel.Op, stageID string, uniforms *uniform.Block, src, dst *imgbuf.Buffer, cpu func() error) error {
	accel := gpuaccel.Current()
	if accel == nil || !accel.CanAccelerate(op) {
		return cpu()
	}
	uniforms.Reserve(stageID, 256)
	err := accel.Dispatch(op, stageID, uniforms, gpuaccel.FromBuffer(src), gpuaccel.FromBuffer(dst))
	if err == nil {
		return accel.Flush()
	}
	if !errors.Is(err, gpuaccel.ErrFallbackToCPU) {
		logging.Get().Warn("engine: accelerator dispatch failed; running CPU kernel", "stage", stageID, "error", err)
	}
	return cpu()
}

// acquire checks out a pooled buffer for the named stage's output, wrapping
// its CPU backing as an imgbuf.Buffer with no copy.
func (e *Engine) acquire(stageID string, w, h int) (*texpool.Texture, *imgbuf.Buffer, error) {
	tex, err := e.pool.Acquire(texpool.Key{StageID: stageID, Width: w, Height: h, Format: texpool.FormatRGBA32Float})
	if err != nil {
		return nil, nil, err
	}
	buf := imgbuf.FromSlice(tex.Backing.([]float32), w, h)
	return tex, buf, nil
}

// release marks tex's writing command complete (synchronous on the CPU
// path) and drops its reference once every consumer is done with it.
func (e *Engine) release(tex *texpool.Texture) {
	e.pool.SignalFence(tex)
	e.pool.Release(tex)
}

// run validates cfg once before any stage runs (config.Validate, a
// ConfigInvalid rejection short-circuits the whole request rather than
// letting a degenerate parameter surface as a confusing failure partway
// through the pipeline), then executes the full fixed pipeline
// synchronously, checking for cancellation at each stage boundary.
// Intermediate stage outputs are checked out of the engine's texture pool
// and released as soon as the next stage has consumed them.
func (e *Engine) run(id uint64, cfg config.WorkspaceConfig, bounds calib.Bounds, src *imgbuf.Buffer) Result {
	if err := config.Validate(cfg); err != nil {
		return Result{RenderID: id, Err: err}
	}
	e.pool.BeginRender()

	step := func(name string, fn func() error) error {
		if e.cancelled(id) {
			return errSuperseded
		}
		if err := fn(); err != nil {
			return negpyerr.Wrap(negpyerr.TileDispatchFailed, "stage "+name+" failed", err)
		}
		return nil
	}

	uniforms := uniform.NewBlock()

	w, h := src.Width, src.Height
	normTex, normalized, err := e.acquire("normalization", w, h)
	if err != nil {
		return Result{RenderID: id, Err: err}
	}
	if err := step("normalization", func() error {
		return e.dispatch(gpuaccel.OpNormalization, "normalization", uniforms, src, normalized, func() error {
			return stages.Normalization(cfg.Exposure.WhiteBalanceR, cfg.Exposure.WhiteBalanceG, cfg.Exposure.WhiteBalanceB, cfg.Exposure.ProcessMode, bounds, src, normalized)
		})
	}); err != nil {
		e.release(normTex)
		return Result{RenderID: id, Err: err}
	}

	transformed, terr := stages.Transform(cfg.Geometry, normalized)
	e.release(normTex)
	if terr != nil {
		return Result{RenderID: id, Err: negpyerr.Wrap(negpyerr.TileDispatchFailed, "stage transform failed", terr)}
	}
	if e.cancelled(id) {
		return Result{RenderID: id, Err: errSuperseded}
	}

	retouchTex, retouched, err := e.acquire("retouch", transformed.Width, transformed.Height)
	if err != nil {
		return Result{RenderID: id, Err: err}
	}
	if err := step("retouch", func() error {
		return e.dispatch(gpuaccel.OpRetouchAuto, "retouch", uniforms, transformed, retouched, func() error {
			return stages.Retouch(cfg.Retouch, transformed, retouched)
		})
	}); err != nil {
		e.release(retouchTex)
		return Result{RenderID: id, Err: err}
	}

	exposureTex, exposed, err := e.acquire("exposure", retouched.Width, retouched.Height)
	if err != nil {
		e.release(retouchTex)
		return Result{RenderID: id, Err: err}
	}
	if err := step("exposure", func() error {
		return e.dispatch(gpuaccel.OpExposure, "exposure", uniforms, retouched, exposed, func() error {
			return stages.Exposure(cfg.Exposure, cfg.Exposure.ProcessMode, retouched, exposed)
		})
	}); err != nil {
		e.release(retouchTex)
		e.release(exposureTex)
		return Result{RenderID: id, Err: err}
	}
	e.release(retouchTex)

	labTex, labbed, err := e.acquire("lab_tools", exposed.Width, exposed.Height)
	if err != nil {
		e.release(exposureTex)
		return Result{RenderID: id, Err: err}
	}
	if err := step("lab_tools", func() error {
		return e.dispatch(gpuaccel.OpLabSeparation, "lab_tools", uniforms, exposed, labbed, func() error {
			return stages.LabTools(cfg.Lab, exposed, labbed)
		})
	}); err != nil {
		e.release(exposureTex)
		e.release(labTex)
		return Result{RenderID: id, Err: err}
	}
	e.release(exposureTex)

	claheTex, clahed, err := e.acquire("clahe", labbed.Width, labbed.Height)
	if err != nil {
		e.release(labTex)
		return Result{RenderID: id, Err: err}
	}
	if err := step("clahe", func() error {
		return e.dispatch(gpuaccel.OpCLAHEApply, "clahe", uniforms, labbed, clahed, func() error {
			hist := stages.CLAHEHistogram(labbed)
			cdf := stages.CLAHECDF(hist, cfg.Lab.CLAHEClipLimit)
			return stages.CLAHEApply(labbed, cdf, cfg.Lab.CLAHEStrength, clahed)
		})
	}); err != nil {
		e.release(labTex)
		e.release(claheTex)
		return Result{RenderID: id, Err: err}
	}
	e.release(labTex)

	toningTex, toned, err := e.acquire("toning", clahed.Width, clahed.Height)
	if err != nil {
		e.release(claheTex)
		return Result{RenderID: id, Err: err}
	}
	if err := step("toning", func() error {
		return e.dispatch(gpuaccel.OpToning, "toning", uniforms, clahed, toned, func() error {
			return stages.Toning(cfg.Toning, cfg.Exposure.ProcessMode, clahed, toned)
		})
	}); err != nil {
		e.release(claheTex)
		e.release(toningTex)
		return Result{RenderID: id, Err: err}
	}
	e.release(claheTex)

	var hist *metrics.HistogramResult
	if err := step("metrics_histogram", func() error {
		h, herr := metrics.Histogram(toned)
		hist = h
		return herr
	}); err != nil {
		e.release(toningTex)
		return Result{RenderID: id, Err: err}
	}

	var final *imgbuf.Buffer
	if err := step("layout", func() error {
		out, lerr := stages.Layout(cfg.Export.Border, toned)
		final = out
		return lerr
	}); err != nil {
		e.release(toningTex)
		return Result{RenderID: id, Err: err}
	}
	e.release(toningTex)

	e.pool.Sweep()
	return Result{Output: final, Histogram: hist, RenderID: id}
}

// ComputeMetrics is the standalone metrics entry point (spec section 6's
// compute_metrics), independent of a full render: it runs the autocrop edge
// walk and the 4-channel histogram directly over buf with no stage transform
// applied.
func (e *Engine) ComputeMetrics(buf *imgbuf.Buffer) (*metrics.HistogramResult, metrics.Rect, error) {
	hist, err := metrics.Histogram(buf)
	if err != nil {
		return nil, metrics.Rect{}, negpyerr.Wrap(negpyerr.TileDispatchFailed, "histogram failed", err)
	}
	rect, err := metrics.Autocrop(buf, e.opts.autocropThreshold)
	if err != nil {
		return nil, metrics.Rect{}, negpyerr.Wrap(negpyerr.TileDispatchFailed, "autocrop failed", err)
	}
	return hist, rect, nil
}

// Pool exposes the engine's intermediate texture pool, e.g. for a host
// application's memory diagnostics.
func (e *Engine) Pool() *texpool.Pool { return e.pool }
