package stages

import (
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
)

// Layout composites the optional border/letterbox around src, the final
// stage in the pipeline (spec section 4.11: "... Toning -> Layout
// (border/letterbox) -> output"). When the border is disabled it returns a
// clone of src unchanged. Layout is an export-only stage: it is never run
// on a tile, since it changes the canvas size.
func Layout(cfg config.BorderSpec, src *imgbuf.Buffer) (*imgbuf.Buffer, error) {
	if !cfg.Enabled || cfg.WidthFraction <= 0 {
		return src.Clone(), nil
	}

	shortEdge := src.Width
	if src.Height < shortEdge {
		shortEdge = src.Height
	}
	border := int(cfg.WidthFraction*float64(shortEdge) + 0.5)
	if border <= 0 {
		return src.Clone(), nil
	}

	outW := src.Width + 2*border
	outH := src.Height + 2*border
	dst := imgbuf.New(outW, outH)

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			dst.Set(x, y, float32(cfg.ColorR), float32(cfg.ColorG), float32(cfg.ColorB))
		}
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			dst.Set(x+border, y+border, r, g, b)
		}
	}

	return dst, nil
}
