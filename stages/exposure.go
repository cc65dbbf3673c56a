package stages

import (
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// Exposure applies the H&D sigmoid print-exposure curve per channel, per
// spec section 4.5. The CMY density shifts are subtracted additively in
// density space before the sigmoid (cyan from red, magenta from green,
// yellow from blue). When mode is E6Positive the sigmoid is bypassed
// entirely (linear pass-through), since a reversal positive is already a
// print-ready image once normalized.
func Exposure(cfg config.ExposureConfig, mode config.ProcessMode, src, dst *imgbuf.Buffer) error {
	shifts := [3]float64{cfg.CyanShift, cfg.MagentaShift, cfg.YellowShift}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			in := [3]float64{float64(r), float64(g), float64(b)}

			var out [3]float64
			for c := 0; c < 3; c++ {
				v := in[c] - shifts[c]
				if mode == config.E6Positive {
					out[c] = v
					continue
				}
				out[c] = numerics.SigmoidHD(v, cfg.Grade, cfg.Density, cfg.Toe, cfg.Shoulder, 1.0)
			}
			dst.Set(x, y, float32(out[0]), float32(out[1]), float32(out[2]))
		}
	}
	return nil
}
