package engine

import (
	"fmt"

	"github.com/marcinz606/NegPy/calib"
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/metrics"
	"github.com/marcinz606/NegPy/negpyerr"
	"github.com/marcinz606/NegPy/stages"
)

// RunExport executes the full pipeline synchronously (no coalescing queue,
// no cancellation — an export always runs to completion). CLAHE's histogram
// and CDF are global-image statistics (spec section 4.7/9: the 8x8 grid is
// always computed over the full image), so those are always computed over
// the whole transformed image regardless of tiling. Exposure is a per-pixel
// transform that runs once over the whole image and is not tiled. Once the
// transformed image exceeds the engine's tile size, the other stages below
// are tiled: Retouch and LabTools read a bounded neighborhood of surrounding pixels (the
// auto-dust/median-filter window and the unsharp mask's Gaussian blur), so
// they are tiled with an e.opts.tileHalo-sized halo of context on every side
// before cropping back to the core region; CLAHEApply and Toning are pure
// per-pixel transforms against the already-global cdf and need no halo.
// cfg is validated once up front (config.Validate) before any stage runs,
// the same ConfigInvalid rejection engine.Submit applies to a preview
// request.
func (e *Engine) RunExport(cfg config.WorkspaceConfig, bounds calib.Bounds, src *imgbuf.Buffer) (*imgbuf.Buffer, *metrics.HistogramResult, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	e.pool.BeginRender()

	normalized := imgbuf.New(src.Width, src.Height)
	if err := stages.Normalization(cfg.Exposure.WhiteBalanceR, cfg.Exposure.WhiteBalanceG, cfg.Exposure.WhiteBalanceB, cfg.Exposure.ProcessMode, bounds, src, normalized); err != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export normalization failed", err)
	}

	transformed, terr := stages.Transform(cfg.Geometry, normalized)
	if terr != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export transform failed", terr)
	}

	retouched, err := tileWithHalo(transformed, e.opts.tileSize, e.opts.tileHalo, func(tsrc, tdst *imgbuf.Buffer) error {
		return stages.Retouch(cfg.Retouch, tsrc, tdst)
	})
	if err != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export retouch failed", err)
	}

	exposed := imgbuf.New(retouched.Width, retouched.Height)
	if err := stages.Exposure(cfg.Exposure, cfg.Exposure.ProcessMode, retouched, exposed); err != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export exposure failed", err)
	}

	labbed, err := tileWithHalo(exposed, e.opts.tileSize, e.opts.tileHalo, func(tsrc, tdst *imgbuf.Buffer) error {
		return stages.LabTools(cfg.Lab, tsrc, tdst)
	})
	if err != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export lab_tools failed", err)
	}

	hist := stages.CLAHEHistogram(labbed)
	cdf := stages.CLAHECDF(hist, cfg.Lab.CLAHEClipLimit)

	toned, err := tileWithHalo(labbed, e.opts.tileSize, 0, func(tsrc, tdst *imgbuf.Buffer) error {
		clahed := imgbuf.New(tsrc.Width, tsrc.Height)
		if err := stages.CLAHEApply(tsrc, cdf, cfg.Lab.CLAHEStrength, clahed); err != nil {
			return fmt.Errorf("clahe: %w", err)
		}
		if err := stages.Toning(cfg.Toning, cfg.Exposure.ProcessMode, clahed, tdst); err != nil {
			return fmt.Errorf("toning: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export clahe/toning failed", err)
	}

	metricsResult, herr := metrics.Histogram(toned)
	if herr != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export histogram failed", herr)
	}

	final, lerr := stages.Layout(cfg.Export.Border, toned)
	if lerr != nil {
		return nil, nil, negpyerr.Wrap(negpyerr.TileDispatchFailed, "export layout failed", lerr)
	}
	e.pool.Sweep()
	return final, metricsResult, nil
}

// tileWithHalo runs stage over full in tileSize-core tiles padded with
// haloRadius pixels of surrounding context on every side (clipped at the
// image edge), so a tiled run sees exactly the same neighborhood a stage
// kernel reading up to haloRadius pixels away would see in an untiled run.
// Below tileSize in both dimensions, full is run through stage whole, with
// no tiling at all.
func tileWithHalo(full *imgbuf.Buffer, tileSize, haloRadius int, stage func(src, dst *imgbuf.Buffer) error) (*imgbuf.Buffer, error) {
	w, h := full.Width, full.Height
	if w <= tileSize && h <= tileSize {
		out := imgbuf.New(w, h)
		if err := stage(full, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	out := imgbuf.New(w, h)
	for y0 := 0; y0 < h; y0 += tileSize {
		coreH := minInt(tileSize, h-y0)
		for x0 := 0; x0 < w; x0 += tileSize {
			coreW := minInt(tileSize, w-x0)

			hx0 := maxInt(0, x0-haloRadius)
			hy0 := maxInt(0, y0-haloRadius)
			hx1 := minInt(w, x0+coreW+haloRadius)
			hy1 := minInt(h, y0+coreH+haloRadius)

			tile := extractTile(full, hx0, hy0, hx1-hx0, hy1-hy0)
			tileOut := imgbuf.New(tile.Width, tile.Height)
			if err := stage(tile, tileOut); err != nil {
				return nil, err
			}
			copyRegion(out, tileOut, x0, y0, x0-hx0, y0-hy0, coreW, coreH)
		}
	}
	return out, nil
}

// extractTile copies a sub-rectangle of full into a new buffer that carries
// full's dimensions as its FullWidth/FullHeight and (x0, y0) as its global
// offset, so a stage kernel inside the tile sees the same global
// coordinates it would in an untiled render.
func extractTile(full *imgbuf.Buffer, x0, y0, w, h int) *imgbuf.Buffer {
	tile := imgbuf.NewTile(w, h, full.FullWidth, full.FullHeight, full.GlobalOffsetX+x0, full.GlobalOffsetY+y0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := full.At(x0+x, y0+y)
			tile.Set(x, y, r, g, b)
		}
	}
	return tile
}

// copyRegion writes the w x h rectangle of src starting at (srcX, srcY)
// into dst starting at (dstX, dstY).
func copyRegion(dst, src *imgbuf.Buffer, dstX, dstY, srcX, srcY, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := src.At(srcX+x, srcY+y)
			dst.Set(dstX+x, dstY+y, r, g, b)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
