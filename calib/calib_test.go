package calib

import (
	"math"
	"testing"

	"github.com/marcinz606/NegPy/imgbuf"
)

func TestAnalyzeRampMatchesScenario(t *testing.T) {
	buf := imgbuf.New(100, 100)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			t := float64(x) / 99.0
			v := 0.001 + t*(1.0-0.001)
			buf.Set(x, y, float32(v), float32(v), float32(v))
		}
	}

	bounds, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze returned error on well-conditioned ramp: %v", err)
	}

	if math.Abs(bounds.FloorR-(-3.0)) > 0.05 {
		t.Errorf("floor = %.4f, want approx -3.0", bounds.FloorR)
	}
	if math.Abs(bounds.CeilingR-0.0) > 0.05 {
		t.Errorf("ceiling = %.4f, want approx 0.0", bounds.CeilingR)
	}
}

func TestAnalyzeDegenerateFlatInput(t *testing.T) {
	buf := imgbuf.New(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			buf.Set(x, y, 0.5, 0.5, 0.5)
		}
	}

	bounds, err := Analyze(buf)
	if err == nil {
		t.Fatalf("expected CalibrationDegenerate for a flat input")
	}
	if bounds.CeilingR-bounds.FloorR <= 0 {
		t.Fatalf("synthetic bounds should still have ceiling > floor")
	}
}

func TestAnalyzeStabilityAcrossDownsamples(t *testing.T) {
	buf := imgbuf.New(4096, 4096)
	for y := 0; y < 4096; y++ {
		for x := 0; x < 4096; x++ {
			v := 0.001 + (float64(x)/4095.0)*(1.0-0.001)
			buf.Set(x, y, float32(v), float32(v), float32(v))
		}
	}

	b1, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	b2, err := Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if math.Abs(b1.FloorR-b2.FloorR) > 0.02 {
		t.Errorf("floor instability across repeated analysis: %.4f vs %.4f", b1.FloorR, b2.FloorR)
	}
}
