package render

import (
	"image"
	"image/color"

	"github.com/marcinz606/NegPy/imgbuf"
	"github.com/marcinz606/NegPy/numerics"
)

// bufferImage adapts an imgbuf.Buffer to draw.Image, the same technique
// calib's unexported floatImage uses to drive golang.org/x/image/draw at
// 16-bit precision, so RenderPreview's downscale shares its numerical
// behavior with calibration's downsample pass.
type bufferImage struct {
	buf *imgbuf.Buffer
}

func (b bufferImage) ColorModel() color.Model { return color.RGBA64Model }

func (b bufferImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.buf.Width, b.buf.Height)
}

func (b bufferImage) At(x, y int) color.Color {
	r, g, bl := b.buf.At(x, y)
	return color.RGBA64{
		R: to16(float64(r)),
		G: to16(float64(g)),
		B: to16(float64(bl)),
		A: 0xffff,
	}
}

func (b bufferImage) Set(x, y int, c color.Color) {
	r64, g64, b64, _ := c.RGBA()
	b.buf.Set(x, y, float32(r64)/65535.0, float32(g64)/65535.0, float32(b64)/65535.0)
}

func to16(v float64) uint16 {
	v = numerics.Clamp01(v)
	return uint16(v * 65535.0)
}
