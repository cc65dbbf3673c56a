package icc

import (
	"testing"

	"github.com/marcinz606/NegPy/imgbuf"
)

func TestLcmsProviderTransformIdentityOnSRGB(t *testing.T) {
	p := NewLcmsProvider()
	buf := imgbuf.New(2, 2)
	buf.Set(0, 0, 0.2, 0.4, 0.6)
	buf.Set(1, 0, 0.8, 0.1, 0.3)
	buf.Set(0, 1, 0.0, 1.0, 0.5)
	buf.Set(1, 1, 0.5, 0.5, 0.5)

	dst := imgbuf.New(2, 2)
	if err := p.Transform(TagSRGB, buf, dst); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r0, g0, b0 := buf.At(x, y)
			r1, g1, b1 := dst.At(x, y)
			if absf32(r0-r1) > 1e-2 || absf32(g0-g1) > 1e-2 || absf32(b0-b1) > 1e-2 {
				t.Fatalf("sRGB->sRGB transform expected near-identity at (%d,%d): got (%v,%v,%v) from (%v,%v,%v)", x, y, r1, g1, b1, r0, g0, b0)
			}
		}
	}
}

func TestLcmsProviderInGamutInRangeValuesPass(t *testing.T) {
	p := NewLcmsProvider()
	buf := imgbuf.New(1, 1)
	buf.Set(0, 0, 0.5, 0.5, 0.5)

	mask, err := p.InGamut(TagSRGB, buf)
	if err != nil {
		t.Fatalf("InGamut: %v", err)
	}
	if len(mask) != 1 {
		t.Fatalf("expected mask of length 1, got %d", len(mask))
	}
	if mask[0] {
		t.Fatal("mid-gray should round-trip inside sRGB's own gamut")
	}
}
