package stages

import (
	"math"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

var (
	seleniumTarget = numerics.RGB{R: 0.85, G: 0.75, B: 0.85}
	sepiaTarget    = numerics.RGB{R: 1.10, G: 0.99, B: 0.83}
)

// Toning applies paper tint, paper D-max gamma, optional B&W luma
// broadcast, chemical (selenium/sepia) toning, saturation, and the final
// display gamma, in the order given by spec section 4.8. Chemical toners
// are disabled in color mode unless BlackAndWhite is set.
func Toning(cfg config.ToningConfig, mode config.ProcessMode, src, dst *imgbuf.Buffer) error {
	tint := numerics.RGB{R: cfg.PaperTintR, G: cfg.PaperTintG, B: cfg.PaperTintB}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			c := numerics.RGB{R: float64(r) * tint.R, G: float64(g) * tint.G, B: float64(b) * tint.B}

			c = numerics.RGB{
				R: math.Pow(numerics.Clamp01(c.R), cfg.DMaxGamma),
				G: math.Pow(numerics.Clamp01(c.G), cfg.DMaxGamma),
				B: math.Pow(numerics.Clamp01(c.B), cfg.DMaxGamma),
			}

			if cfg.BlackAndWhite {
				luma := numerics.Rec709Luma(c)
				c = numerics.RGB{R: luma, G: luma, B: luma}
			}

			if cfg.BlackAndWhite || mode == config.BWNegative {
				luma := numerics.Rec709Luma(c)
				selMask := cfg.SeleniumStrength * (1 - luma) * (1 - luma)
				c = applyToner(c, selMask, seleniumTarget)

				sepMask := cfg.SepiaStrength * math.Exp(-((luma-0.6)*(luma-0.6))/0.08)
				c = applyToner(c, sepMask, sepiaTarget)
			}

			luma := numerics.Rec709Luma(c)
			c = mixRGB(numerics.RGB{R: luma, G: luma, B: luma}, c, cfg.Saturation)

			c = numerics.RGB{
				R: math.Pow(numerics.Clamp01(c.R), cfg.FinalGamma),
				G: math.Pow(numerics.Clamp01(c.G), cfg.FinalGamma),
				B: math.Pow(numerics.Clamp01(c.B), cfg.FinalGamma),
			}

			dst.Set(x, y, float32(c.R), float32(c.G), float32(c.B))
		}
	}
	return nil
}

func applyToner(p numerics.RGB, mask float64, tone numerics.RGB) numerics.RGB {
	mask = numerics.Clamp01(mask)
	toned := numerics.RGB{R: p.R * tone.R, G: p.G * tone.G, B: p.B * tone.B}
	return mixRGB(p, toned, mask)
}
