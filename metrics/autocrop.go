// Package metrics computes the standalone measurements the engine surfaces
// alongside a render: the autocrop bounding rectangle and the post-toning
// 4-channel histogram. Both run as a reduction over a buffer rather than a
// per-pixel transform, so they live outside the stages package.
package metrics

import (
	"math"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// Rect is a bounding rectangle in full-image pixel coordinates, end-exclusive.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Autocrop reduces each row and each column of src to a Rec.709 luminance
// mean, then walks each edge inward from the border until the mean crosses
// threshold, locating the film-rebate transition. Each side takes the first
// crossing met from its edge; later crossings are not compared, so the size
// of the jump in mean luminance plays no part in the choice.
func Autocrop(src *imgbuf.Buffer, threshold float64) (Rect, error) {
	w, h := src.Width, src.Height
	if w == 0 || h == 0 {
		return Rect{}, nil
	}

	rowMeans := make([]float64, h)
	colMeans := make([]float64, w)
	colCount := float64(w)
	rowCount := float64(h)

	for y := 0; y < h; y++ {
		var rowSum float64
		for x := 0; x < w; x++ {
			r, g, b := src.At(x, y)
			luma := numerics.Rec709Luma(numerics.RGB{R: float64(r), G: float64(g), B: float64(b)})
			rowSum += luma
			colMeans[x] += luma
		}
		rowMeans[y] = rowSum / colCount
	}
	for x := 0; x < w; x++ {
		colMeans[x] /= rowCount
	}

	gx, gy := src.GlobalXY(0, 0)
	x0 := gx + edgeWalk(colMeans, threshold, true)
	x1 := gx + w - edgeWalk(colMeans, threshold, false)
	y0 := gy + edgeWalk(rowMeans, threshold, true)
	y1 := gy + h - edgeWalk(rowMeans, threshold, false)

	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}, nil
}

// edgeWalk walks means from the given edge (index 0 if fromStart, the last
// index otherwise) inward, returning the offset of the first index whose
// mean crosses threshold (0 if none does). The first crossing is always the
// one returned; no later candidate replaces it, whatever its jump from its
// neighbor.
func edgeWalk(means []float64, threshold float64, fromStart bool) int {
	n := len(means)
	if n == 0 {
		return 0
	}

	at := func(i int) float64 {
		if fromStart {
			return means[i]
		}
		return means[n-1-i]
	}

	const tieEpsilon = 1e-6
	crossing := -1
	var crossingDelta float64
	for i := 1; i < n; i++ {
		if at(i-1) < threshold && at(i) >= threshold {
			delta := at(i) - at(i-1)
			if crossing == -1 {
				crossing, crossingDelta = i, delta
				continue
			}
			if math.Abs(delta-crossingDelta) < tieEpsilon {
				continue // first crossing already recorded, keep it
			}
			break
		}
		if crossing != -1 {
			break
		}
	}
	if crossing == -1 {
		return 0
	}
	return crossing
}
