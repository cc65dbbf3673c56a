package stages

import (
	"math"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// Retouch runs auto-dust detection followed by manual spot healing, per
// spec section 4.4. An empty manual-spot list with auto-dust disabled is
// the identity pass (dst == src bit-exact), satisfying the retouch-identity
// testable property.
func Retouch(cfg config.RetouchConfig, src, dst *imgbuf.Buffer) error {
	if !cfg.AutoDustEnabled && len(cfg.ManualSpots) == 0 {
		copy(dst.Data, src.Data)
		return nil
	}

	stage1 := src
	if cfg.AutoDustEnabled {
		stage1 = src.Clone()
		autoDust(cfg, src, stage1)
	}

	if len(cfg.ManualSpots) == 0 {
		copy(dst.Data, stage1.Data)
		return nil
	}
	manualHeal(cfg.ManualSpots, stage1, dst)
	return nil
}

func sampler(buf *imgbuf.Buffer) numerics.Sampler {
	return func(x, y int) numerics.RGB {
		r, g, b := buf.At(clampIdx(x, buf.Width), clampIdx(y, buf.Height))
		return numerics.RGB{R: float64(r), G: float64(g), B: float64(b)}
	}
}

func clampIdx(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func medianRadius(dustSize float64) int {
	switch {
	case dustSize < 1.5:
		return 1 // 3x3
	case dustSize < 2.5:
		return 2 // 5x5
	default:
		return 3 // 7x7
	}
}

func autoDust(cfg config.RetouchConfig, src, dst *imgbuf.Buffer) {
	samp := sampler(src)
	imageScale := math.Max(1.0, float64(minInt(src.FullWidth, src.FullHeight))/1000.0)
	statRadius := int(math.Round(2 * cfg.AutoDustSize * imageScale))
	if statRadius < 1 {
		statRadius = 1
	}
	medR := medianRadius(cfg.AutoDustSize)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			mean, std := numerics.MeanStdDevLuma(samp, x, y, statRadius)
			r, g, b := src.At(x, y)
			pixelLuma := numerics.Rec709Luma(numerics.RGB{R: float64(r), G: float64(g), B: float64(b)})
			if std > 0.2 || pixelLuma <= 0.4 {
				dst.Set(x, y, r, g, b)
				continue
			}

			flatness := numerics.Clamp01(1 - std/0.08)
			highlightSens := numerics.Clamp01((mean - 0.4) * 1.5)
			finalThreshold := cfg.AutoDustThreshold*(1-0.98*math.Sqrt(flatness))*(1-0.5*highlightSens) + (1-flatness)*0.05

			ref := numerics.MedianFilterRGB(samp, x, y, medR)
			pixel := numerics.RGB{R: float64(r), G: float64(g), B: float64(b)}
			diff := maxChannelDiff(pixel, ref)

			strength := numerics.Smoothstep(finalThreshold, 1.2*finalThreshold, diff)
			if strength <= 0 {
				dst.Set(x, y, r, g, b)
				continue
			}

			gx, gy := src.GlobalXY(x, y)
			grain := numerics.HashCoord(gx, gy, 0) * 3 * mean * (1 - mean) * 1e-3
			healed := numerics.RGB{R: ref.R + grain, G: ref.G + grain, B: ref.B + grain}

			out := mixRGB(pixel, healed, strength)
			dst.Set(x, y, float32(out.R), float32(out.G), float32(out.B))
		}
	}
}

func manualHeal(spots []config.ManualSpot, src, dst *imgbuf.Buffer) {
	copy(dst.Data, src.Data)
	samp := sampler(src)
	fullW, fullH := float64(src.FullWidth), float64(src.FullHeight)
	longEdge := fullW
	if fullH > longEdge {
		longEdge = fullH
	}

	for si, spot := range spots {
		cx, cy := spot.X*fullW, spot.Y*fullH
		radius := spot.Radius * longEdge
		if radius <= 0 {
			continue
		}

		x0 := int(math.Floor(cx - radius))
		x1 := int(math.Ceil(cx + radius))
		y0 := int(math.Floor(cy - radius))
		y1 := int(math.Ceil(cy + radius))

		for gy := y0; gy <= y1; gy++ {
			ly := gy - src.GlobalOffsetY
			if ly < 0 || ly >= src.Height {
				continue
			}
			for gx := x0; gx <= x1; gx++ {
				lx := gx - src.GlobalOffsetX
				if lx < 0 || lx >= src.Width {
					continue
				}

				dx, dy := float64(gx)-cx, float64(gy)-cy
				dist := math.Hypot(dx, dy)
				if dist > radius {
					continue
				}

				angle := math.Atan2(dy, dx)
				var sum numerics.RGB
				for j := 0; j < 3; j++ {
					jitter := numerics.HashCoord(gx, gy, si*3+j) * 0.25
					a := angle + jitter
					sx := cx + math.Cos(a)*radius
					sy := cy + math.Sin(a)*radius
					minned := numerics.MinFilterRGB(samp, int(math.Round(sx))-src.GlobalOffsetX, int(math.Round(sy))-src.GlobalOffsetY)
					sum.R += minned.R
					sum.G += minned.G
					sum.B += minned.B
				}
				heal := numerics.RGB{R: sum.R / 3, G: sum.G / 3, B: sum.B / 3}

				r, g, b := src.At(lx, ly)
				pixel := numerics.RGB{R: float64(r), G: float64(g), B: float64(b)}
				healLuma := numerics.Rec709Luma(heal)
				pixelLuma := numerics.Rec709Luma(pixel)

				keyStrength := numerics.Smoothstep(0.04, 0.12, pixelLuma-healLuma)
				feather := numerics.Smoothstep(radius, 0.8*radius, dist)
				strength := keyStrength * feather
				if strength <= 0 {
					continue
				}

				out := mixRGB(pixel, heal, strength)
				dst.Set(lx, ly, float32(out.R), float32(out.G), float32(out.B))
			}
		}
	}
}

func maxChannelDiff(a, b numerics.RGB) float64 {
	d := math.Abs(a.R - b.R)
	if v := math.Abs(a.G - b.G); v > d {
		d = v
	}
	if v := math.Abs(a.B - b.B); v > d {
		d = v
	}
	return d
}

func mixRGB(a, b numerics.RGB, t float64) numerics.RGB {
	return numerics.RGB{
		R: numerics.Lerp(a.R, b.R, t),
		G: numerics.Lerp(a.G, b.G, t),
		B: numerics.Lerp(a.B, b.B, t),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
