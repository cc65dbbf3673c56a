package stages

import (
	"testing"

	"github.com/marcinz606/NegPy/config"
)

func TestLayoutDisabledIsIdentity(t *testing.T) {
	src := randomBuffer(10, 8, 5)
	out, err := Layout(config.BorderSpec{Enabled: false}, src)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	buffersEqual(t, src, out, 0)
}

func TestLayoutAddsSymmetricBorder(t *testing.T) {
	src := randomBuffer(100, 50, 7)
	cfg := config.BorderSpec{Enabled: true, WidthFraction: 0.1, ColorR: 1, ColorG: 1, ColorB: 1}
	out, err := Layout(cfg, src)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	shortEdge := 50.0
	wantBorder := int(0.1*shortEdge + 0.5)
	wantW := src.Width + 2*wantBorder
	wantH := src.Height + 2*wantBorder
	if out.Width != wantW || out.Height != wantH {
		t.Fatalf("dims = %dx%d, want %dx%d", out.Width, out.Height, wantW, wantH)
	}
	r, g, b := out.At(0, 0)
	if r != 1 || g != 1 || b != 1 {
		t.Fatalf("border pixel = (%v,%v,%v), want (1,1,1)", r, g, b)
	}
	sr, sg, sb := src.At(0, 0)
	cr, cg, cb := out.At(wantBorder, wantBorder)
	if sr != cr || sg != cg || sb != cb {
		t.Fatalf("interior pixel mismatch: src=(%v,%v,%v) out=(%v,%v,%v)", sr, sg, sb, cr, cg, cb)
	}
}
