package stages

import (
	"testing"

	"github.com/marcinz606/NegPy/config"
	"github.com/marcinz606/NegPy/imgbuf"
)

func TestRetouchIdentityWhenDisabled(t *testing.T) {
	src := randomBuffer(16, 12, 99)
	dst := imgbuf.New(16, 12)
	cfg := config.RetouchConfig{AutoDustEnabled: false}

	if err := Retouch(cfg, src, dst); err != nil {
		t.Fatalf("Retouch: %v", err)
	}
	buffersEqual(t, src, dst, 0)
}

// TestAutoDustGatesOnPixelLumaNotNeighborhoodMean pins a dark background
// with a single bright dust pixel: the neighborhood mean stays well under
// the bright-only gate's 0.4 cutoff even though the pixel itself is bright,
// so the gate must read the pixel's own luminance, not the blurred mean, or
// the dust pixel is wrongly skipped.
func TestAutoDustGatesOnPixelLumaNotNeighborhoodMean(t *testing.T) {
	const n = 9
	src := imgbuf.New(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			src.Set(x, y, 0.1, 0.1, 0.1)
		}
	}
	cx, cy := n/2, n/2
	src.Set(cx, cy, 0.9, 0.9, 0.9)

	dst := imgbuf.New(n, n)
	cfg := config.RetouchConfig{
		AutoDustEnabled:   true,
		AutoDustThreshold: 0.12,
		AutoDustSize:      1.0,
	}
	if err := Retouch(cfg, src, dst); err != nil {
		t.Fatalf("Retouch: %v", err)
	}

	r, _, _ := dst.At(cx, cy)
	if r >= 0.9 {
		t.Fatalf("expected the bright dust pixel to be healed toward the dark background, got %v unchanged", r)
	}
}

func TestRetouchManualHealStaysWithinBuffer(t *testing.T) {
	src := randomBuffer(64, 64, 5)
	dst := imgbuf.New(64, 64)
	cfg := config.RetouchConfig{
		ManualSpots: []config.ManualSpot{{X: 0.5, Y: 0.5, Radius: 0.1}},
	}
	if err := Retouch(cfg, src, dst); err != nil {
		t.Fatalf("Retouch: %v", err)
	}
	if err := dst.AllFinite(); err != nil {
		t.Fatalf("AllFinite: %v", err)
	}
}
