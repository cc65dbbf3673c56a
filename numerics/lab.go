package numerics

import "math"

// D65 white point and the sRGB primaries-derived linear RGB <-> XYZ
// matrices, frozen here per original_source/src/backend/image_logic/color.py.
const (
	whiteXn = 0.95047
	whiteYn = 1.0
	whiteZn = 1.08883

	labEpsilon = 216.0 / 24389.0
	labKappa   = 24389.0 / 27.0
)

var rgbToXYZMatrix = [3][3]float64{
	{0.4124564, 0.3575761, 0.1804375},
	{0.2126729, 0.7151522, 0.0721750},
	{0.0193339, 0.1191920, 0.9503041},
}

var xyzToRGBMatrix = [3][3]float64{
	{3.2404542, -1.5371385, -0.4985314},
	{-0.9692660, 1.8760108, 0.0415560},
	{0.0556434, -0.2040259, 1.0572252},
}

// Lab is a CIELAB triple under the D65 reference white.
type Lab struct {
	L, A, B float64
}

func mulMat(m [3][3]float64, c RGB) (float64, float64, float64) {
	x := m[0][0]*c.R + m[0][1]*c.G + m[0][2]*c.B
	y := m[1][0]*c.R + m[1][1]*c.G + m[1][2]*c.B
	z := m[2][0]*c.R + m[2][1]*c.G + m[2][2]*c.B
	return x, y, z
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16) / 116
}

func labFInv(f float64) float64 {
	f3 := f * f * f
	if f3 > labEpsilon {
		return f3
	}
	return (116*f - 16) / labKappa
}

// RGBToLab converts a linear RGB triple to CIELAB under D65.
func RGBToLab(c RGB) Lab {
	x, y, z := mulMat(rgbToXYZMatrix, c)
	fx := labF(x / whiteXn)
	fy := labF(y / whiteYn)
	fz := labF(z / whiteZn)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

// LabToRGB converts a CIELAB triple under D65 back to linear RGB. The
// inverse is exact to within floating-point error. The result is not
// clamped; callers that need values in [0,1] clamp after calling this
// function.
func LabToRGB(lab Lab) RGB {
	fy := (lab.L + 16) / 116
	fx := fy + lab.A/500
	fz := fy - lab.B/200

	x := whiteXn * labFInv(fx)
	y := whiteYn * labFInv(fy)
	z := whiteZn * labFInv(fz)

	r := xyzToRGBMatrix[0][0]*x + xyzToRGBMatrix[0][1]*y + xyzToRGBMatrix[0][2]*z
	g := xyzToRGBMatrix[1][0]*x + xyzToRGBMatrix[1][1]*y + xyzToRGBMatrix[1][2]*z
	b := xyzToRGBMatrix[2][0]*x + xyzToRGBMatrix[2][1]*y + xyzToRGBMatrix[2][2]*z
	return RGB{r, g, b}
}
