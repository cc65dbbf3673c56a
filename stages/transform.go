package stages

import (
	"math"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// Transform applies the geometry record's 90-degree-step rotation,
// horizontal/vertical flips, and optional fine affine rotation, producing a
// new buffer whose dimensions reflect the rotation. Always runs over the
// full (untiled) image; tiled export slices this stage's output rather than
// running Transform per tile, so the coordinate-sensitive stages downstream
// see a stable full_dims and global_offset.
func Transform(geom config.GeometryConfig, src *imgbuf.Buffer) (*imgbuf.Buffer, error) {
	steps := ((geom.Rotation / 90) % 4 + 4) % 4
	rotated := rotate90Flip(src, steps, geom.FlipHorizontal, geom.FlipVertical)

	if geom.FineRotation == 0 {
		return rotated, nil
	}
	return fineRotate(rotated, geom.FineRotation), nil
}

// rotate90Flip performs an exact (no interpolation) rotation by steps*90
// degrees clockwise of the source with the requested flips already applied
// (the flips act on source coordinates, so the output is the rotation of
// the flipped image). Because rotations by
// multiples of 90 degrees map grid points to grid points, no sampling error
// is introduced here.
func rotate90Flip(src *imgbuf.Buffer, steps int, flipH, flipV bool) *imgbuf.Buffer {
	w, h := src.Width, src.Height
	ow, oh := w, h
	if steps%2 == 1 {
		ow, oh = h, w
	}
	dst := imgbuf.New(ow, oh)

	for oy := 0; oy < oh; oy++ {
		for ox := 0; ox < ow; ox++ {
			sx, sy := ox, oy
			switch steps {
			case 1: // 90 CW: output (x,y) <- input (y, H-1-x)
				sx, sy = oy, ow-1-ox
			case 2: // 180
				sx, sy = w-1-ox, h-1-oy
			case 3: // 270 CW
				sx, sy = oh-1-oy, ox
			}
			if flipH {
				sx = w - 1 - sx
			}
			if flipV {
				sy = h - 1 - sy
			}
			r, g, b := src.At(sx, sy)
			dst.Set(ox, oy, r, g, b)
		}
	}
	return dst
}

// fineRotate applies a small rotation (degrees, counter-clockwise positive)
// about the image center, sampling the source with bilinear interpolation
// and clamped edges. Canvas size is unchanged; corners introduced by the
// rotation are filled from clamped edge samples rather than cropped.
// GeometryConfig.Crop is checked by config.Validate, but no stage applies
// it; the output keeps the full rotated canvas.
func fineRotate(src *imgbuf.Buffer, degrees float64) *imgbuf.Buffer {
	w, h := src.Width, src.Height
	dst := imgbuf.New(w, h)

	theta := degrees * math.Pi / 180.0
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	cx, cy := float64(w)/2, float64(h)/2

	for oy := 0; oy < h; oy++ {
		for ox := 0; ox < w; ox++ {
			dx := float64(ox) - cx
			dy := float64(oy) - cy
			// Inverse rotation: map destination coordinate back to source.
			sxf := cx + dx*cosT + dy*sinT
			syf := cy - dx*sinT + dy*cosT
			c := numerics.BilinearSample(src.Data, w, h, src.Stride, sxf, syf)
			dst.Set(ox, oy, float32(c.R), float32(c.G), float32(c.B))
		}
	}
	return dst
}
