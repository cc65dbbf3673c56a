package stages

import (
	"math"
	"testing"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
)

func randomBuffer(w, h int, seed int) *imgbuf.Buffer {
	b := imgbuf.New(w, h)
	s := seed
	next := func() float32 {
		s = (s*1103515245 + 12345) & 0x7fffffff
		return float32(s%1000) / 1000.0
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, next(), next(), next())
		}
	}
	return b
}

func buffersEqual(t *testing.T, a, b *imgbuf.Buffer, tol float64) {
	t.Helper()
	if a.Width != b.Width || a.Height != b.Height {
		t.Fatalf("dimension mismatch: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			ar, ag, ab := a.At(x, y)
			br, bg, bb := b.At(x, y)
			if math.Abs(float64(ar-br)) > tol || math.Abs(float64(ag-bg)) > tol || math.Abs(float64(ab-bb)) > tol {
				t.Fatalf("pixel (%d,%d) differs: (%v,%v,%v) vs (%v,%v,%v)", x, y, ar, ag, ab, br, bg, bb)
			}
		}
	}
}

func TestTransformFourRotationsIsIdentity(t *testing.T) {
	src := randomBuffer(9, 7, 42)
	cur := src
	for i := 0; i < 4; i++ {
		out, err := Transform(config.GeometryConfig{Rotation: 90}, cur)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		cur = out
	}
	buffersEqual(t, src, cur, 0)
}

func TestTransformHorizontalFlipTwiceIsIdentity(t *testing.T) {
	src := randomBuffer(11, 5, 7)
	once, err := Transform(config.GeometryConfig{FlipHorizontal: true}, src)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	twice, err := Transform(config.GeometryConfig{FlipHorizontal: true}, once)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	buffersEqual(t, src, twice, 0)
}

func TestTransform90DegreeSwapsDimensions(t *testing.T) {
	src := imgbuf.New(20, 10)
	out, err := Transform(config.GeometryConfig{Rotation: 90}, src)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if out.Width != 10 || out.Height != 20 {
		t.Fatalf("expected swapped dimensions 10x20, got %dx%d", out.Width, out.Height)
	}
}
