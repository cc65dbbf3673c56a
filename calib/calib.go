// Package calib performs the one-shot CPU calibration analysis run once per
// newly loaded file: downsample the demosaiced linear buffer, estimate
// per-channel log10-density floor and ceiling via percentile analysis, and
// hand the result to Normalization via the uniform block.
package calib

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/negpyerr"
	"github.com/marcinz606/NegPy/numerics"
)

// Bounds is the per-channel (floor, ceiling) in log10 density that
// Normalization clamps against. Frozen percentile endpoints per the pinned
// Open Question: PercentileLow/PercentileHigh below, not 1.0/99.5.
type Bounds struct {
	FloorR, FloorG, FloorB     float64
	CeilingR, CeilingG, CeilingB float64
}

const (
	// PercentileLow and PercentileHigh are the frozen calibration
	// percentile endpoints (spec section 9 Open Question, resolved 0.5/99.5).
	PercentileLow  = 0.5
	PercentileHigh = 99.5

	// MaxAnalysisEdge bounds the downsample target so calibration cost is
	// independent of the source resolution.
	MaxAnalysisEdge = 2048

	degenerateEpsilon = 1e-6
)

// floatImage adapts an imgbuf.Buffer to image.Image so it can be scaled
// through golang.org/x/image/draw at 16-bit precision, preserving enough
// dynamic range for percentile analysis without carrying the full-size
// float32 buffer through the resize.
type floatImage struct {
	buf *imgbuf.Buffer
}

func (f floatImage) ColorModel() color.Model { return color.RGBA64Model }
func (f floatImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.buf.Width, f.buf.Height)
}
func (f floatImage) At(x, y int) color.Color {
	r, g, b := f.buf.At(x, y)
	return color.RGBA64{
		R: to16(float64(r)),
		G: to16(float64(g)),
		B: to16(float64(b)),
		A: 0xffff,
	}
}

func to16(v float64) uint16 {
	v = numerics.Clamp(v, 0, 1)
	return uint16(v * 65535.0)
}

// downsample scales buf so its longer edge is at most MaxAnalysisEdge,
// returning a 16-bit RGBA image ready for percentile sampling. If buf is
// already small enough, it still passes through the scaler at 1:1 so the
// analysis path is uniform regardless of input size.
func downsample(buf *imgbuf.Buffer) *image.RGBA64 {
	w, h := buf.Width, buf.Height
	longEdge := w
	if h > longEdge {
		longEdge = h
	}
	scale := 1.0
	if longEdge > MaxAnalysisEdge {
		scale = float64(MaxAnalysisEdge) / float64(longEdge)
	}
	dw := int(math.Round(float64(w) * scale))
	dh := int(math.Round(float64(h) * scale))
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA64(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(dst, dst.Bounds(), floatImage{buf: buf}, floatImage{buf: buf}.Bounds(), draw.Src, nil)
	return dst
}

// Analyze downsamples buf and computes per-channel log10-density bounds at
// the frozen PercentileLow/PercentileHigh endpoints. If the resulting
// ceiling does not clear the floor by more than degenerateEpsilon for any
// channel, Analyze returns a synthetic identity calibration alongside a
// negpyerr.CalibrationDegenerate error; callers should surface the error as
// a non-fatal warning and still use the returned Bounds.
func Analyze(buf *imgbuf.Buffer) (Bounds, error) {
	img := downsample(buf)
	n := len(img.Pix) / 8 // RGBA64: 8 bytes per pixel

	r := make([]float64, 0, n)
	g := make([]float64, 0, n)
	b := make([]float64, 0, n)
	for i := 0; i < len(img.Pix); i += 8 {
		r = append(r, float64(uint16(img.Pix[i])<<8|uint16(img.Pix[i+1]))/65535.0)
		g = append(g, float64(uint16(img.Pix[i+2])<<8|uint16(img.Pix[i+3]))/65535.0)
		b = append(b, float64(uint16(img.Pix[i+4])<<8|uint16(img.Pix[i+5]))/65535.0)
	}

	bounds := Bounds{
		FloorR:   numerics.Percentile(r, PercentileLow),
		CeilingR: numerics.Percentile(r, PercentileHigh),
		FloorG:   numerics.Percentile(g, PercentileLow),
		CeilingG: numerics.Percentile(g, PercentileHigh),
		FloorB:   numerics.Percentile(b, PercentileLow),
		CeilingB: numerics.Percentile(b, PercentileHigh),
	}

	if degenerate(bounds) {
		return Bounds{FloorR: -3, FloorG: -3, FloorB: -3, CeilingR: 0, CeilingG: 0, CeilingB: 0},
			negpyerr.New(negpyerr.CalibrationDegenerate, "calibration floor/ceiling collapsed; using synthetic identity bounds")
	}
	return bounds, nil
}

func degenerate(b Bounds) bool {
	return b.CeilingR-b.FloorR <= degenerateEpsilon ||
		b.CeilingG-b.FloorG <= degenerateEpsilon ||
		b.CeilingB-b.FloorB <= degenerateEpsilon
}
