// Package stages implements the ten independent stage kernels the engine
// chains together: pure functions from one imgbuf.Buffer (plus a config
// sub-record) to another, each safe to run identically on a full image or
// on a single export tile.
package stages

import (
	"github.com/marcinz606/NegPy/calib"
	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// degenerateEpsilon matches the threshold calib uses to flag a collapsed
// calibration window; Normalization independently checks it per channel
// since a user-supplied manual floor/ceiling pair can collapse even when
// the calibration analyzer never ran.
const degenerateEpsilon = 1e-6

// Normalization converts white-balanced linear RGB to normalized log10
// density per channel, per spec section 4.2. For E6Positive mode the input
// is linearly inverted (1 - v) before the log step. A channel whose
// ceiling does not clear its floor by more than degenerateEpsilon is
// written as zero rather than dividing by a near-zero span.
func Normalization(wbR, wbG, wbB float64, mode config.ProcessMode, bounds calib.Bounds, src, dst *imgbuf.Buffer) error {
	floors := [3]float64{bounds.FloorR, bounds.FloorG, bounds.FloorB}
	ceils := [3]float64{bounds.CeilingR, bounds.CeilingG, bounds.CeilingB}
	wb := [3]float64{wbR, wbG, wbB}

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			r, g, b := src.At(x, y)
			in := [3]float64{float64(r) * wb[0], float64(g) * wb[1], float64(b) * wb[2]}

			var out [3]float64
			for c := 0; c < 3; c++ {
				v := in[c]
				if mode == config.E6Positive {
					v = 1 - v
				}
				d := numerics.LogSafe(v)
				span := ceils[c] - floors[c]
				if span <= degenerateEpsilon {
					out[c] = 0
					continue
				}
				out[c] = numerics.Clamp01((d - floors[c]) / span)
			}
			dst.Set(x, y, float32(out[0]), float32(out[1]), float32(out[2]))
		}
	}
	return nil
}
