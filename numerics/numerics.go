// Package numerics provides the shared scalar math used by every stage
// kernel. Functions here are pure, so they are safe to call per-pixel from
// data-parallel chunk loops. The scalar helpers in this file allocate
// nothing; the filters (MedianFilterRGB's per-call sort slices,
// GaussianBlur1Channel's output buffer) and Percentile do allocate.
package numerics

import "math"

// Epsilon is the floor used by LogSafe and anywhere a division needs
// protection from a true zero.
const Epsilon = 1e-6

// LogSafe returns log10(max(v, Epsilon)), avoiding -Inf for zero or
// negative input.
func LogSafe(v float64) float64 {
	if v < Epsilon {
		v = Epsilon
	}
	return math.Log10(v)
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep returns the Hermite interpolation of x between edges e0 and e1,
// clamped to [0, 1] outside the edges.
func Smoothstep(e0, e1, x float64) float64 {
	if e0 == e1 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := Clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// SigmoidHD evaluates the H&D characteristic curve: a logistic response in
// log-exposure space with rational toe softening below pivot and
// logarithmic shoulder compression above it. The curve is monotone
// non-decreasing and C1-continuous at pivot for any toe, shoulder >= 0.
func SigmoidHD(x, grade, pivot, toe, shoulder, dmax float64) float64 {
	xp := x
	switch {
	case x < pivot && toe != 0:
		xp = pivot + (x-pivot)/(1+toe*(pivot-x))
	case x > pivot && shoulder != 0:
		xp = pivot + math.Log1p(shoulder*(x-pivot))/shoulder
	}
	return dmax / (1 + math.Exp(-grade*(xp-pivot)))
}

// RGB is a linear-light triple shared by the numerics and stages packages.
type RGB struct {
	R, G, B float64
}

// Rec709Luma returns the Rec.709 relative luminance of a linear RGB triple.
func Rec709Luma(c RGB) float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// HashCoord derives a deterministic pseudo-random value in [-0.5, 0.5] from
// a full-image pixel coordinate and an auxiliary seed (spot index, or 0 for
// the auto-dust grain synthesis). The construction must be stable across
// tiled and untiled renders, so it is a pure function of (x, y, seed) with
// no dependence on tile-local coordinates.
func HashCoord(x, y, seed int) float64 {
	h := uint32(x)*374761393 + uint32(y)*668265263 + uint32(seed)*2147483647
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h)/float64(^uint32(0)) - 0.5
}

// BilinearSample samples an interleaved float32 RGB buffer at fractional
// coordinates (x, y), clamping out-of-bounds lookups to the edge.
func BilinearSample(data []float32, width, height, stride int, x, y float64) RGB {
	x = Clamp(x, 0, float64(width-1))
	y = Clamp(y, 0, float64(height-1))

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > width-1 {
		x1 = width - 1
	}
	if y1 > height-1 {
		y1 = height - 1
	}

	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := readRGB(data, stride, x0, y0)
	p10 := readRGB(data, stride, x1, y0)
	p01 := readRGB(data, stride, x0, y1)
	p11 := readRGB(data, stride, x1, y1)

	top := RGB{Lerp(p00.R, p10.R, fx), Lerp(p00.G, p10.G, fx), Lerp(p00.B, p10.B, fx)}
	bot := RGB{Lerp(p01.R, p11.R, fx), Lerp(p01.G, p11.G, fx), Lerp(p01.B, p11.B, fx)}
	return RGB{Lerp(top.R, bot.R, fy), Lerp(top.G, bot.G, fy), Lerp(top.B, bot.B, fy)}
}

func readRGB(data []float32, stride, x, y int) RGB {
	i := y*stride + x*3
	return RGB{float64(data[i]), float64(data[i+1]), float64(data[i+2])}
}
