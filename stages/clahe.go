package stages

import (
	"math"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// CLAHETilesX and CLAHETilesY fix the tile grid at 8x8 regardless of image
// aspect ratio, resolving the Open Question pinned in spec section 9: the
// grid is always computed over the full image, never per export tile.
const (
	CLAHETilesX = 8
	CLAHETilesY = 8
	claheBins   = 256
)

// perceptualGamma is the display-referred gamma CLAHE operates in, per
// spec section 4.7 ("Operates on perceptual luminance (gamma 2.2 power of
// linear)").
const perceptualGamma = 2.2

func perceptualLuma(c numerics.RGB) float64 {
	linear := numerics.Clamp01(numerics.Rec709Luma(c))
	return math.Pow(linear, 1.0/perceptualGamma)
}

// CLAHEHistogramResult is the first of CLAHE's three kernels' outputs: a
// 256-bin perceptual-luma histogram per tile of the full image's 8x8 grid,
// built from src regardless of whether src is the full image or a single
// export tile (bucketing uses full-image coordinates via src.GlobalXY).
type CLAHEHistogramResult struct {
	TilesX, TilesY int
	Bins           []uint32 // flat, length TilesX*TilesY*claheBins
}

// CLAHEHistogram accumulates per-tile perceptual-luma histograms.
func CLAHEHistogram(src *imgbuf.Buffer) *CLAHEHistogramResult {
	res := &CLAHEHistogramResult{
		TilesX: CLAHETilesX,
		TilesY: CLAHETilesY,
		Bins:   make([]uint32, CLAHETilesX*CLAHETilesY*claheBins),
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			luma := perceptualLuma(numerics.RGB{R: float64(r), G: float64(g), B: float64(b)})
			gx, gy := src.GlobalXY(x, y)
			tx := tileIndex(gx, src.FullWidth, CLAHETilesX)
			ty := tileIndex(gy, src.FullHeight, CLAHETilesY)
			bin := binOf(luma)
			res.Bins[(ty*CLAHETilesX+tx)*claheBins+bin]++
		}
	}
	return res
}

func tileIndex(coord, fullExtent, tiles int) int {
	if fullExtent <= 0 {
		return 0
	}
	idx := coord * tiles / fullExtent
	return clampIdx(idx, tiles)
}

func binOf(luma float64) int {
	b := int(numerics.Clamp01(luma) * claheBins)
	if b >= claheBins {
		b = claheBins - 1
	}
	return b
}

// CLAHECDFResult is the second kernel's output: one normalized cumulative
// distribution per tile, after clip-limit redistribution.
type CLAHECDFResult struct {
	TilesX, TilesY int
	CDF            []float64 // flat, length TilesX*TilesY*claheBins, each entry in [0, 1]
}

// CLAHECDF clips each tile's histogram to clipLimit*total/256, redistributes
// the clipped excess uniformly across all 256 bins (integer quotient plus
// remainder on the first `rem` bins), and forms a normalized cumulative sum.
func CLAHECDF(hist *CLAHEHistogramResult, clipLimit float64) *CLAHECDFResult {
	out := &CLAHECDFResult{
		TilesX: hist.TilesX,
		TilesY: hist.TilesY,
		CDF:    make([]float64, len(hist.Bins)),
	}

	for t := 0; t < hist.TilesX*hist.TilesY; t++ {
		base := t * claheBins
		tileBins := hist.Bins[base : base+claheBins]

		var total uint64
		for _, c := range tileBins {
			total += uint64(c)
		}
		if total == 0 {
			continue
		}

		clip := clipLimit * float64(total) / float64(claheBins)
		clipped := make([]float64, claheBins)
		var excess float64
		for i, c := range tileBins {
			v := float64(c)
			if v > clip {
				excess += v - clip
				v = clip
			}
			clipped[i] = v
		}

		quotient := math.Floor(excess / claheBins)
		rem := int(math.Round(excess - quotient*claheBins))
		for i := range clipped {
			clipped[i] += quotient
			if i < rem {
				clipped[i]++
			}
		}

		var cumulative float64
		for i, v := range clipped {
			cumulative += v
			out.CDF[base+i] = cumulative / float64(total)
		}
	}
	return out
}

// CLAHEApply blends each pixel's perceptual luma with the bilinearly
// interpolated CDF-equalized value from the four nearest tile centers
// (tile centers beyond the grid edge clamp to the edge tile), rescales
// chrominance by the ratio of equalized to original linear luma, and
// writes the result to dst.
func CLAHEApply(src *imgbuf.Buffer, cdf *CLAHECDFResult, alpha float64, dst *imgbuf.Buffer) error {
	fw, fh := float64(src.FullWidth), float64(src.FullHeight)
	tx := float64(cdf.TilesX)
	ty := float64(cdf.TilesY)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			c := numerics.RGB{R: float64(r), G: float64(g), B: float64(b)}
			luma := perceptualLuma(c)
			linearLuma := numerics.Clamp01(numerics.Rec709Luma(c))
			bin := binOf(luma)

			gx, gy := src.GlobalXY(x, y)
			// Continuous tile-center coordinate: pixel's position measured
			// in tile-widths, offset by half a tile so tile i's center sits
			// at coordinate i.
			ftx := (float64(gx)+0.5)/fw*tx - 0.5
			fty := (float64(gy)+0.5)/fh*ty - 0.5

			tx0 := clampIdx(int(math.Floor(ftx)), cdf.TilesX)
			ty0 := clampIdx(int(math.Floor(fty)), cdf.TilesY)
			tx1 := clampIdx(tx0+1, cdf.TilesX)
			ty1 := clampIdx(ty0+1, cdf.TilesY)

			wx := numerics.Clamp01(ftx - math.Floor(ftx))
			wy := numerics.Clamp01(fty - math.Floor(fty))

			c00 := cdf.CDF[(ty0*cdf.TilesX+tx0)*claheBins+bin]
			c10 := cdf.CDF[(ty0*cdf.TilesX+tx1)*claheBins+bin]
			c01 := cdf.CDF[(ty1*cdf.TilesX+tx0)*claheBins+bin]
			c11 := cdf.CDF[(ty1*cdf.TilesX+tx1)*claheBins+bin]

			top := numerics.Lerp(c00, c10, wx)
			bot := numerics.Lerp(c01, c11, wx)
			cdfLuma := numerics.Lerp(top, bot, wy)

			finalPerceptual := numerics.Lerp(luma, cdfLuma, alpha)
			finalLinear := math.Pow(numerics.Clamp01(finalPerceptual), perceptualGamma)

			ratio := finalLinear / math.Max(linearLuma, numerics.Epsilon)
			dst.Set(x, y, float32(c.R*ratio), float32(c.G*ratio), float32(c.B*ratio))
		}
	}
	return nil
}
