// Package render is the single entry point a host application (CLI,
// interactive UI) uses to turn a loaded negative plus a WorkspaceConfig
// into pixels: Facade wraps one engine.Engine and one session.Session and
// exposes the operations external callers need (spec section 4.12):
// RenderPreview, RenderExport, RenderThumbnail, ComputeMetrics and
// GamutWarning.
package render

import (
	"fmt"

	"golang.org/x/image/draw"

	"github.com/marcinz606/NegPy/calib"
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/engine"
	"github.com/marcinz606/NegPy/icc"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/metrics"
	"github.com/marcinz606/NegPy/negpyerr"
	"github.com/marcinz606/NegPy/session"
)

// RenderFailedEvent is the payload RenderPreview hands to OnRenderFailed
// when a render fails: a stable Kind for programmatic branching plus a
// sanitized, user-facing Message, mirroring negpyerr.Error's own shape.
type RenderFailedEvent struct {
	Kind    negpyerr.Kind
	Message string
}

// Facade is the renderer a host application drives. It owns no pixels of
// its own between calls; every method takes the source buffer and returns
// a fresh result.
type Facade struct {
	engine  *engine.Engine
	session *session.Session
	icc     icc.Provider

	// OnRenderFailed, if set, is invoked by RenderPreview (never
	// RenderExport) whenever the underlying render fails, after
	// RenderPreview has already built the placeholder it returns alongside
	// the error. Spec section 4.12/9 distinguishes the two call shapes:
	// render_preview returns a placeholder and emits a render_failed(kind,
	// message) event for an editor to show inline, while render_export
	// returns a plain typed error with no special event, since a batch
	// export has no live canvas to keep showing something in. Dispatching
	// the event onto a host application's own UI event loop is the
	// caller's responsibility; this field is just the seam.
	OnRenderFailed func(RenderFailedEvent)
}

// New constructs a Facade over sess's pool/accelerator and a fresh
// engine.Engine built from it. An icc.Provider is optional: GamutWarning
// returns negpyerr.ConfigInvalid if none was supplied.
func New(sess *session.Session, iccProvider icc.Provider, opts ...engine.Option) *Facade {
	engineOpts := append([]engine.Option{engine.WithPool(sess.Pool)}, opts...)
	if sess.Accelerator != nil {
		engineOpts = append(engineOpts, engine.WithAccelerator(sess.Accelerator))
	}
	return &Facade{
		engine:  engine.New(engineOpts...),
		session: sess,
		icc:     iccProvider,
	}
}

// Close releases the Facade's engine (and the worker goroutine it started).
// The session's pool, being owned by the session, survives a Close.
func (f *Facade) Close() { f.engine.Close() }

// calibration returns src's calibration Bounds, cached under key. Callers that
// load the same file repeatedly (preview re-renders after an edit) should
// use a stable key (typically the source path) so Analyze only runs once
// per file; RenderPreview/RenderExport accept the key explicitly rather
// than hashing src themselves, since the session's cache is keyed by
// whatever identity the host application already tracks for the file.
func (f *Facade) calibration(key string, src *imgbuf.Buffer) calib.Bounds {
	if b, ok := f.session.Calibration(key); ok {
		return b
	}
	b, err := calib.Analyze(src)
	f.session.SetCalibration(key, b)
	_ = err // CalibrationDegenerate is a non-fatal warning; b is still usable
	return b
}

// runSync submits cfg/bounds/src to the engine and blocks for its result,
// the synchronous shape a render.Facade caller expects even though the
// underlying engine is an async coalescing queue.
func (f *Facade) runSync(cfg config.WorkspaceConfig, bounds calib.Bounds, src *imgbuf.Buffer) engine.Result {
	done := make(chan engine.Result, 1)
	id := f.engine.Submit(cfg, bounds, src, func(r engine.Result) { done <- r })
	result := <-done
	if result.RenderID != id {
		// A later Submit coalesced ours away before it ran; re-submit once,
		// since runSync callers expect a result for the config they passed.
		done2 := make(chan engine.Result, 1)
		f.engine.Submit(cfg, bounds, src, func(r engine.Result) { done2 <- r })
		return <-done2
	}
	return result
}

// RenderPreview runs the full pipeline at source resolution and scales the
// result down to maxEdge on its longer side, for interactive editing. On
// failure it still returns a usable placeholder buffer (rather than nil)
// alongside the error, and — if OnRenderFailed is set — emits a
// RenderFailedEvent, so an editor's preview canvas always has something to
// display even mid-failure.
func (f *Facade) RenderPreview(key string, cfg config.WorkspaceConfig, src *imgbuf.Buffer, maxEdge int) (*imgbuf.Buffer, *metrics.HistogramResult, error) {
	bounds := f.calibration(key, src)
	result := f.runSync(cfg, bounds, src)
	if result.Err != nil {
		f.emitRenderFailed(result.Err)
		return placeholderBuffer(src, maxEdge), nil, result.Err
	}
	scaled := scaleToMaxEdge(result.Output, maxEdge)
	return scaled, result.Histogram, nil
}

// emitRenderFailed forwards err to OnRenderFailed, unpacking it into a
// RenderFailedEvent's Kind/Message when it's a *negpyerr.Error and falling
// back to ConfigInvalid for anything else (renderRequest errors are always
// *negpyerr.Error today, but the fallback keeps this from panicking if that
// ever changes).
func (f *Facade) emitRenderFailed(err error) {
	if f.OnRenderFailed == nil {
		return
	}
	event := RenderFailedEvent{Kind: negpyerr.ConfigInvalid, Message: err.Error()}
	if e, ok := err.(*negpyerr.Error); ok {
		event.Kind, event.Message = e.Kind, e.Message
	}
	f.OnRenderFailed(event)
}

// RenderExport runs the full pipeline at source resolution with the
// tiled-export path (engine.RunExport), optionally tagging the output with
// an ICC profile via the Facade's icc.Provider.
func (f *Facade) RenderExport(key string, cfg config.WorkspaceConfig, src *imgbuf.Buffer, outputTag icc.Tag) (*imgbuf.Buffer, *metrics.HistogramResult, error) {
	bounds := f.calibration(key, src)
	out, hist, err := f.engine.RunExport(cfg, bounds, src)
	if err != nil {
		return nil, nil, err
	}
	if outputTag == "" {
		return out, hist, nil
	}
	if f.icc == nil {
		return nil, nil, negpyerr.New(negpyerr.ConfigInvalid, "render: output tag requested but no icc.Provider configured")
	}
	tagged := imgbuf.New(out.Width, out.Height)
	if err := f.icc.Transform(outputTag, out, tagged); err != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.ConfigInvalid, "render: icc tagging failed", err)
	}
	return tagged, hist, nil
}

// RenderThumbnail runs a cheap low-resolution pass for a file browser
// grid, skipping CLAHE and Retouch's auto-dust detection (both expensive
// and original-resolution-sensitive), matching
// thumbnail_worker.py's own shortcut (spec section 9 EXPANSION).
func (f *Facade) RenderThumbnail(key string, cfg config.WorkspaceConfig, src *imgbuf.Buffer, maxEdge int) (*imgbuf.Buffer, error) {
	bounds := f.calibration(key, src)
	thumbCfg := cfg
	thumbCfg.Retouch.AutoDustEnabled = false
	thumbCfg.Lab.CLAHEStrength = 0

	result := f.runSync(thumbCfg, bounds, src)
	if result.Err != nil {
		return nil, result.Err
	}
	return scaleToMaxEdge(result.Output, maxEdge), nil
}

// ComputeMetrics runs the standalone metrics pass (autocrop edge walk plus
// the 4-channel histogram) directly over buf, with no stage transform
// applied.
func (f *Facade) ComputeMetrics(buf *imgbuf.Buffer) (*metrics.HistogramResult, metrics.Rect, error) {
	return f.engine.ComputeMetrics(buf)
}

// GamutWarning flags buf's pixels that fall outside tag's gamut, for a
// preview soft-proofing indicator. It never mutates buf.
func (f *Facade) GamutWarning(buf *imgbuf.Buffer, tag icc.Tag) ([]bool, error) {
	if f.icc == nil {
		return nil, negpyerr.New(negpyerr.ConfigInvalid, "render: GamutWarning requires an icc.Provider")
	}
	mask, err := f.icc.InGamut(tag, buf)
	if err != nil {
		return nil, negpyerr.Wrap(negpyerr.ConfigInvalid, fmt.Sprintf("render: gamut check against %q failed", tag), err)
	}
	return mask, nil
}

// scaleToMaxEdge returns buf unchanged if its longer edge is already at or
// below maxEdge, otherwise a bilinear-scaled copy (golang.org/x/image/draw,
// the same scaler calib.Analyze uses to downsample for percentile
// analysis).
func scaleToMaxEdge(buf *imgbuf.Buffer, maxEdge int) *imgbuf.Buffer {
	dw, dh, ok := scaledDims(buf.Width, buf.Height, maxEdge)
	if !ok {
		return buf
	}

	src := bufferImage{buf: buf}
	dst := bufferImage{buf: imgbuf.New(dw, dh)}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst.buf
}

// scaledDims reports the dimensions w x h would scale to so its longer edge
// is maxEdge, and false if no scaling is needed (maxEdge <= 0 or w x h is
// already within it).
func scaledDims(w, h, maxEdge int) (dw, dh int, scaled bool) {
	if maxEdge <= 0 {
		return 0, 0, false
	}
	longEdge := w
	if h > longEdge {
		longEdge = h
	}
	if longEdge <= maxEdge {
		return 0, 0, false
	}

	scale := float64(maxEdge) / float64(longEdge)
	dw = int(float64(w)*scale + 0.5)
	dh = int(float64(h)*scale + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	return dw, dh, true
}

// placeholderGray is the flat linear value RenderPreview's failure
// placeholder is filled with, roughly a photographic middle gray card.
const placeholderGray = 0.18

// placeholderBuffer returns a flat middle-gray buffer sized like src (scaled
// to maxEdge the same way a successful RenderPreview would be), for
// RenderPreview to hand back on failure instead of nil so an editor's
// preview canvas always has something to display.
func placeholderBuffer(src *imgbuf.Buffer, maxEdge int) *imgbuf.Buffer {
	w, h := src.Width, src.Height
	if dw, dh, ok := scaledDims(w, h, maxEdge); ok {
		w, h = dw, dh
	}
	buf := imgbuf.New(w, h)
	for i := range buf.Data {
		buf.Data[i] = placeholderGray
	}
	return buf
}
