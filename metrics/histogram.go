package metrics

import (
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

const histogramBins = 256

// HistogramResult holds four 256-bin histograms (R, G, B, luma) computed
// over the post-toning, pre-layout buffer, per spec section 4.9. Bin i
// covers 8-bit value range [i, i+1).
type HistogramResult struct {
	R, G, B, Luma [histogramBins]uint64
}

// Histogram accumulates the 4-channel histogram of buf. The teacher's tiled
// GPU kernel would use atomic adds per tile; the CPU path here sums
// directly since Go guarantees a single goroutine per call.
func Histogram(buf *imgbuf.Buffer) (*HistogramResult, error) {
	res := &HistogramResult{}
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			r, g, b := buf.At(x, y)
			res.R[bin8(r)]++
			res.G[bin8(g)]++
			res.B[bin8(b)]++
			luma := numerics.Rec709Luma(numerics.RGB{R: float64(r), G: float64(g), B: float64(b)})
			res.Luma[bin8(float32(luma))]++
		}
	}
	return res, nil
}

func bin8(v float32) int {
	b := int(numerics.Clamp01(float64(v)) * histogramBins)
	if b >= histogramBins {
		b = histogramBins - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}
