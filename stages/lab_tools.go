package stages

import (
	"math"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// crosstalkMatrix is the fixed 3x3 spectral crosstalk correction applied by
// LabTools' color-separation step before row-normalization. Modeled on a
// typical C41 dye-layer crosstalk correction: each channel picks up a small
// positive contribution from its neighbors and a compensating reduction
// from itself.
var crosstalkMatrix = [3][3]float64{
	{1.08, -0.06, -0.02},
	{-0.05, 1.10, -0.05},
	{-0.02, -0.08, 1.10},
}

// labNoiseFloor is the minimum |L - L_blur| magnitude the unsharp mask
// reacts to, per spec section 4.6.
const labNoiseFloor = 2.0

// LabTools performs color separation (spectral crosstalk correction blended
// with identity by SeparationStrength) and a luma-only unsharp mask in
// CIELAB space, per spec section 4.6.
func LabTools(cfg config.LabConfig, src, dst *imgbuf.Buffer) error {
	separated := imgbuf.New(src.Width, src.Height)
	applySeparation(cfg.SeparationStrength, src, separated)

	return unsharpLuma(cfg.SharpenAmount, cfg.SharpenRadius, separated, dst)
}

func applySeparation(beta float64, src, dst *imgbuf.Buffer) {
	var blended [3][3]float64
	for i := 0; i < 3; i++ {
		var rowSum float64
		for j := 0; j < 3; j++ {
			identity := 0.0
			if i == j {
				identity = 1.0
			}
			blended[i][j] = (1-beta)*identity + beta*crosstalkMatrix[i][j]
			rowSum += blended[i][j]
		}
		if rowSum != 0 {
			for j := 0; j < 3; j++ {
				blended[i][j] /= rowSum
			}
		}
	}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			in := [3]float64{float64(r), float64(g), float64(b)}
			var out [3]float64
			for i := 0; i < 3; i++ {
				out[i] = blended[i][0]*in[0] + blended[i][1]*in[1] + blended[i][2]*in[2]
			}
			dst.Set(x, y, float32(out[0]), float32(out[1]), float32(out[2]))
		}
	}
}

func unsharpLuma(lambda, sigma float64, src, dst *imgbuf.Buffer) error {
	w, h := src.Width, src.Height
	labBuf := make([]numerics.Lab, w*h)
	lChannel := make([]float64, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := src.At(x, y)
			lab := numerics.RGBToLab(numerics.RGB{R: float64(r), G: float64(g), B: float64(b)})
			idx := y*w + x
			labBuf[idx] = lab
			lChannel[idx] = lab.L
		}
	}

	blurred := numerics.GaussianBlur1Channel(lChannel, w, h, sigma)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			lab := labBuf[idx]
			delta := lab.L - blurred[idx]
			newL := lab.L
			if math.Abs(delta) > labNoiseFloor {
				newL = lab.L + lambda*delta
			}
			out := numerics.LabToRGB(numerics.Lab{L: newL, A: lab.A, B: lab.B})
			dst.Set(x, y, float32(out.R), float32(out.G), float32(out.B))
		}
	}
	return nil
}
